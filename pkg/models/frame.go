package models

import "time"

// FrameFormat tags the encoding of the bytes held by a FrameBuffer.
type FrameFormat string

const (
	FormatRaw  FrameFormat = "raw"  // packed pixels straight from the sensor (YUYV)
	FormatJPEG FrameFormat = "jpeg" // compressed, ready for the wire
)

// Provenance records where a FrameBuffer's memory came from, which decides
// how it must be released: device buffers go back to the capture pool,
// heap buffers are simply dropped for the GC.
type Provenance string

const (
	ProvenanceDevice Provenance = "device"
	ProvenanceHeap   Provenance = "heap"
)

// FrameBuffer holds exactly one captured image. It is exclusively owned by
// whichever component currently holds it; ownership moves at most once per
// pipeline hop and every exit path must release it through the source that
// handed it out.
type FrameBuffer struct {
	Data       []byte
	Format     FrameFormat
	Provenance Provenance
	Width      int
	Height     int
	CapturedAt time.Time
}

// IsJPEG reports whether the buffer already carries a compressed payload.
func (f *FrameBuffer) IsJPEG() bool {
	return f.Format == FormatJPEG
}
