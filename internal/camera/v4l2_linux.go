//go:build linux

package camera

import (
	"fmt"
	"sync"
	"time"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"helmcam/pkg/models"
)

// V4L2 pixel format fourcc codes.
var (
	pixFmtMJPEG = webcam.PixelFormat(fourCCToU32('M', 'J', 'P', 'G'))
	pixFmtYUYV  = webcam.PixelFormat(fourCCToU32('Y', 'U', 'Y', 'V'))
)

// V4L2 control ids for sensor tuning.
const (
	ctlBrightness = webcam.ControlID(0x00980900)
	ctlContrast   = webcam.ControlID(0x00980901)
	ctlSaturation = webcam.ControlID(0x00980902)
)

func fourCCToU32(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// V4L2Source captures frames from a Video4Linux2 device. The mutex is the
// driver-boundary lock: the device and its buffer pool are the only
// resources shared between sessions, so all access funnels through here.
type V4L2Source struct {
	cfg Config
	log *logrus.Logger

	mu     sync.Mutex
	cam    *webcam.Webcam
	format models.FrameFormat
	width  uint32
	height uint32
	pool   *bufferPool
}

// NewV4L2 creates an unconfigured source; Configure brings the device up.
func NewV4L2(cfg Config, log *logrus.Logger) *V4L2Source {
	return &V4L2Source{cfg: cfg, log: log}
}

// Configure opens the device, negotiates a pixel format (MJPEG preferred,
// YUYV as fallback) and starts streaming. Safe to call again after a failed
// attempt; any half-open device is torn down first.
func (s *V4L2Source) Configure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam != nil {
		s.cam.StopStreaming()
		s.cam.Close()
		s.cam = nil
	}

	cam, err := webcam.Open(s.cfg.DevicePath)
	if err != nil {
		return errors.Wrapf(err, "open %s", s.cfg.DevicePath)
	}

	pix, format, err := pickFormat(cam.GetSupportedFormats())
	if err != nil {
		cam.Close()
		return err
	}

	_, w, h, err := cam.SetImageFormat(pix, s.cfg.FrameWidth, s.cfg.FrameHeight)
	if err != nil {
		cam.Close()
		return errors.Wrap(err, "set image format")
	}

	if err := cam.SetBufferCount(uint32(s.cfg.BufferCount)); err != nil {
		cam.Close()
		return errors.Wrap(err, "set buffer count")
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return errors.Wrap(err, "start streaming")
	}

	s.cam = cam
	s.format = format
	s.width = w
	s.height = h
	// Worst case frame size: YUYV packs 2 bytes per pixel.
	s.pool = newBufferPool(s.cfg.BufferCount, int(w*h*2), s.cfg.PreallocateRAM)

	s.log.WithFields(logrus.Fields{
		"device": s.cfg.DevicePath,
		"format": format,
		"width":  w,
		"height": h,
	}).Info("camera configured")
	return nil
}

func pickFormat(supported map[webcam.PixelFormat]string) (webcam.PixelFormat, models.FrameFormat, error) {
	if _, ok := supported[pixFmtMJPEG]; ok {
		return pixFmtMJPEG, models.FormatJPEG, nil
	}
	if _, ok := supported[pixFmtYUYV]; ok {
		return pixFmtYUYV, models.FormatRaw, nil
	}
	return 0, "", errors.New("device supports neither MJPEG nor YUYV")
}

// Tune applies the sensor controls. Runs after Configure, before the
// self-test capture.
func (s *V4L2Source) Tune() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam == nil {
		return errors.New("tune before configure")
	}
	controls := map[webcam.ControlID]int32{
		ctlBrightness: s.cfg.Tuning.Brightness,
		ctlContrast:   s.cfg.Tuning.Contrast,
		ctlSaturation: s.cfg.Tuning.Saturation,
	}
	for id, value := range controls {
		if err := s.cam.SetControl(id, value); err != nil {
			// Not every sensor exposes every control; log and move on.
			s.log.WithError(err).WithField("control", fmt.Sprintf("%#x", uint32(id))).
				Warn("sensor control not applied")
		}
	}
	return nil
}

// Acquire waits for the next frame, drains the driver queue down to the
// freshest one and copies it into a pool buffer. Favoring the most recent
// frame over FIFO order trades ordering for latency.
func (s *V4L2Source) Acquire() (*models.FrameBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam == nil {
		return nil, fmt.Errorf("%w: device not configured", models.ErrCaptureFailure)
	}

	timeout := uint32(s.cfg.CaptureTimeout / time.Second)
	if timeout == 0 {
		timeout = 1
	}
	if err := s.cam.WaitForFrame(timeout); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCaptureFailure, err)
	}

	frame, err := s.cam.ReadFrame()
	if err != nil || len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty read (%v)", models.ErrCaptureFailure, err)
	}

	// Stale-frame drop: the ring may hold older frames, keep only the last.
	for {
		next, err := s.cam.ReadFrame()
		if err != nil || len(next) == 0 {
			break
		}
		frame = next
	}

	buf, err := s.pool.get()
	if err != nil {
		return nil, err
	}

	return &models.FrameBuffer{
		Data:       append(buf, frame...),
		Format:     s.format,
		Provenance: models.ProvenanceDevice,
		Width:      int(s.width),
		Height:     int(s.height),
		CapturedAt: time.Now(),
	}, nil
}

// Release returns a device buffer to the pool. Heap buffers (produced by
// the JPEG adapter) have nothing to return and are left to the GC.
func (s *V4L2Source) Release(fb *models.FrameBuffer) {
	if fb == nil || fb.Provenance != models.ProvenanceDevice {
		return
	}
	s.pool.put(fb.Data)
	fb.Data = nil
}

// Close stops streaming and releases the device.
func (s *V4L2Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam == nil {
		return nil
	}
	if err := s.cam.StopStreaming(); err != nil {
		s.cam.Close()
		s.cam = nil
		return err
	}
	err := s.cam.Close()
	s.cam = nil
	return err
}
