//go:build !linux

package camera

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"helmcam/pkg/models"
)

// V4L2Source is only functional on linux; this stub keeps the service
// compiling on development hosts.
type V4L2Source struct{}

func NewV4L2(cfg Config, log *logrus.Logger) *V4L2Source {
	return &V4L2Source{}
}

func (s *V4L2Source) Configure() error {
	return errors.New("v4l2 capture requires linux")
}

func (s *V4L2Source) Tune() error {
	return errors.New("v4l2 capture requires linux")
}

func (s *V4L2Source) Acquire() (*models.FrameBuffer, error) {
	return nil, models.ErrCaptureFailure
}

func (s *V4L2Source) Release(fb *models.FrameBuffer) {}

func (s *V4L2Source) Close() error { return nil }
