package mjpeg

import (
	"fmt"
	"net/http"

	"helmcam/pkg/models"
)

// httpChunkWriter adapts an http.ResponseWriter into a ChunkWriter. Every
// write is flushed immediately so each chunk leaves the node on its own.
type httpChunkWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewHTTPChunkWriter returns a ChunkWriter over an open response stream.
// The underlying writer must support flushing.
func NewHTTPChunkWriter(w http.ResponseWriter) (ChunkWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("%w: response writer cannot flush", models.ErrTransportFailure)
	}
	return &httpChunkWriter{w: w, f: f}, nil
}

func (c *httpChunkWriter) WriteChunk(p []byte) error {
	if _, err := c.w.Write(p); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransportFailure, err)
	}
	c.f.Flush()
	return nil
}
