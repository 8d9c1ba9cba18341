package camera

import (
	"fmt"
	"time"

	"helmcam/pkg/models"
)

// FrameSource hands out exclusively-owned frame buffers. Acquire must not
// block past the device timeout; on failure no buffer exists and nothing
// needs releasing. Every acquired buffer must come back through Release on
// every exit path, error paths included.
type FrameSource interface {
	Acquire() (*models.FrameBuffer, error)
	Release(fb *models.FrameBuffer)
}

// Device is a FrameSource with a bring-up surface, driven by the capture
// supervisor before any session starts.
type Device interface {
	FrameSource
	Configure() error
	Tune() error
	Close() error
}

// Tuning carries the sensor controls applied after device configuration.
type Tuning struct {
	Brightness int32
	Contrast   int32
	Saturation int32
}

// Config describes the capture device, fixed at startup.
type Config struct {
	DevicePath  string
	FrameWidth  uint32
	FrameHeight uint32

	// Frame-buffer pool
	BufferCount    int
	PreallocateRAM bool // reserve all pool buffers up front instead of on demand

	// Upper bound on a single frame wait; a stuck device surfaces as a
	// capture failure instead of hanging the session.
	CaptureTimeout time.Duration

	Tuning Tuning
}

// bufferPool is a fixed-size pool of reusable frame byte slices. It models
// the scarce frame memory of the device: when every buffer is outstanding,
// acquisition fails rather than allocating more.
type bufferPool struct {
	free chan []byte
	size int
}

func newBufferPool(count, size int, preallocate bool) *bufferPool {
	p := &bufferPool{
		free: make(chan []byte, count),
		size: size,
	}
	for i := 0; i < count; i++ {
		if preallocate {
			p.free <- make([]byte, 0, size)
		} else {
			p.free <- nil
		}
	}
	return p
}

func (p *bufferPool) get() ([]byte, error) {
	select {
	case b := <-p.free:
		if b == nil {
			b = make([]byte, 0, p.size)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: frame buffer pool exhausted", models.ErrCaptureFailure)
	}
}

func (p *bufferPool) put(b []byte) {
	select {
	case p.free <- b[:0]:
	default:
		// Double release; drop the buffer instead of growing the pool.
	}
}

func (p *bufferPool) outstanding() int {
	return cap(p.free) - len(p.free)
}
