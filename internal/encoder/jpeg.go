package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"helmcam/pkg/models"
)

// Releaser is the slice of the frame source the adapter needs: it must hand
// raw input buffers back to the device pool the moment they are consumed.
type Releaser interface {
	Release(fb *models.FrameBuffer)
}

// Adapter converts captured frames to JPEG. Already-compressed frames pass
// through untouched, keeping their device provenance; raw frames are
// re-encoded into a heap-owned buffer and the original is released
// immediately, so at no point are two buffers held past the transform.
type Adapter struct {
	source  Releaser
	quality int
}

// New creates an adapter encoding at the given JPEG quality (1-100).
func New(source Releaser, quality int) *Adapter {
	return &Adapter{source: source, quality: quality}
}

// Encode returns a JPEG frame buffer. On failure the input is released and
// the error propagates without retry; the caller decides whether the
// session survives.
func (a *Adapter) Encode(fb *models.FrameBuffer) (*models.FrameBuffer, error) {
	if fb.IsJPEG() {
		return fb, nil
	}

	img, err := yuyvToImage(fb.Data, fb.Width, fb.Height)
	if err != nil {
		a.source.Release(fb)
		return nil, fmt.Errorf("%w: %v", models.ErrEncodeFailure, err)
	}

	var buf bytes.Buffer
	err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.quality})

	// The raw buffer is consumed either way; give it back before reporting.
	width, height, capturedAt := fb.Width, fb.Height, fb.CapturedAt
	a.source.Release(fb)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEncodeFailure, err)
	}

	return &models.FrameBuffer{
		Data:       buf.Bytes(),
		Format:     models.FormatJPEG,
		Provenance: models.ProvenanceHeap,
		Width:      width,
		Height:     height,
		CapturedAt: capturedAt,
	}, nil
}

// yuyvToImage wraps packed YUYV 4:2:2 pixels in an image.YCbCr without
// per-pixel color conversion; the JPEG encoder consumes YCbCr natively.
func yuyvToImage(data []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || len(data) < width*height*2 {
		return nil, fmt.Errorf("short YUYV frame: %d bytes for %dx%d", len(data), width, height)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for y := 0; y < height; y++ {
		row := data[y*width*2 : (y+1)*width*2]
		for x := 0; x < width; x += 2 {
			i := x * 2
			img.Y[y*img.YStride+x] = row[i]
			img.Y[y*img.YStride+x+1] = row[i+2]
			img.Cb[y*img.CStride+x/2] = row[i+1]
			img.Cr[y*img.CStride+x/2] = row[i+3]
		}
	}
	return img, nil
}
