// Package mjpeg frames JPEG payloads into the multipart/x-mixed-replace
// wire format and pushes them out as individual HTTP chunks.
package mjpeg

import (
	"fmt"
)

// Boundary is the part separator token. Kept long and numeric so it can
// never collide with JPEG entropy-coded data.
const Boundary = "123456789000000000000987654321"

// ContentType is the value served on the stream response.
const ContentType = "multipart/x-mixed-replace;boundary=" + Boundary

var boundaryChunk = []byte("\r\n--" + Boundary + "\r\n")

// ChunkWriter delivers one HTTP chunk per call. Implementations must flush
// each chunk to the wire before returning; a transport that cannot flush is
// a transport that cannot stream.
type ChunkWriter interface {
	WriteChunk(p []byte) error
}

// Encoder writes one multipart part per frame: boundary, part header with
// the exact payload length, then the payload, each as its own chunk. It
// never buffers more than the part currently in flight, and the leading
// boundary lets a conformant parser re-synchronize even after a previous
// part was cut short by a transport error.
type Encoder struct {
	w ChunkWriter
}

// NewEncoder wraps a chunk writer for the life of one session.
func NewEncoder(w ChunkWriter) *Encoder {
	return &Encoder{w: w}
}

// WritePart emits one complete JPEG part. The first chunk failure aborts
// the remainder of the part; HTTP chunked state cannot be rewound, so there
// is no partial-part retry.
func (e *Encoder) WritePart(payload []byte) error {
	if err := e.w.WriteChunk(boundaryChunk); err != nil {
		return err
	}

	header := fmt.Sprintf("Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(payload))
	if err := e.w.WriteChunk([]byte(header)); err != nil {
		return err
	}

	return e.w.WriteChunk(payload)
}
