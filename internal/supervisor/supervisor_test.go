package supervisor

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"helmcam/internal/metrics"
	"helmcam/pkg/models"
)

// scriptedDevice fails configuration and self-test a fixed number of times
// before succeeding.
type scriptedDevice struct {
	configureFails int
	selfTestFails  int

	configureCalls int
	tuneCalls      int
	acquireCalls   int
	releaseCalls   int
}

func (d *scriptedDevice) Configure() error {
	d.configureCalls++
	if d.configureCalls <= d.configureFails {
		return errors.New("device busy")
	}
	return nil
}

func (d *scriptedDevice) Tune() error {
	d.tuneCalls++
	return nil
}

func (d *scriptedDevice) Acquire() (*models.FrameBuffer, error) {
	d.acquireCalls++
	if d.acquireCalls <= d.selfTestFails {
		return nil, models.ErrCaptureFailure
	}
	return &models.FrameBuffer{
		Data:       []byte{0xff, 0xd8, 0xff, 0xd9},
		Format:     models.FormatJPEG,
		Provenance: models.ProvenanceDevice,
	}, nil
}

func (d *scriptedDevice) Release(fb *models.FrameBuffer) {
	d.releaseCalls++
}

func (d *scriptedDevice) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newSupervisor(d *scriptedDevice, rebooted *int) *Supervisor {
	return New(d, RetryPolicy{MaxAttempts: 3, Delay: 0}, quietLogger(), metrics.New(), func() {
		*rebooted++
	})
}

func TestStartFirstAttemptVerifies(t *testing.T) {
	d := &scriptedDevice{}
	var rebooted int
	s := newSupervisor(d, &rebooted)

	assert.NoError(t, s.Start())
	assert.Equal(t, models.CaptureVerified, s.State())
	assert.Equal(t, "ok", s.Health())
	assert.Equal(t, 1, d.configureCalls)
	assert.Equal(t, 1, d.tuneCalls)
	assert.Equal(t, 1, d.acquireCalls, "self-test capture is mandatory")
	assert.Equal(t, 1, d.releaseCalls, "self-test buffer must be released")
	assert.Equal(t, 0, rebooted)
}

func TestStartRetriesConfigurationFailures(t *testing.T) {
	d := &scriptedDevice{configureFails: 2}
	var rebooted int
	s := newSupervisor(d, &rebooted)

	assert.NoError(t, s.Start())
	assert.Equal(t, models.CaptureVerified, s.State())
	assert.Equal(t, 3, d.configureCalls)
	assert.Equal(t, 0, rebooted)
}

func TestStartRetriesSelfTestFailures(t *testing.T) {
	// Configuration succeeds but capture does not: the silent partial
	// bring-up case the self-test exists to catch.
	d := &scriptedDevice{selfTestFails: 1}
	var rebooted int
	s := newSupervisor(d, &rebooted)

	assert.NoError(t, s.Start())
	assert.Equal(t, models.CaptureVerified, s.State())
	assert.Equal(t, 2, d.configureCalls)
	assert.Equal(t, 2, d.acquireCalls)
}

func TestStartExhaustsRetriesAndReboots(t *testing.T) {
	d := &scriptedDevice{configureFails: 99}
	var rebooted int
	s := newSupervisor(d, &rebooted)

	err := s.Start()
	assert.True(t, errors.Is(err, models.ErrInitFailure))
	assert.Equal(t, models.CaptureFailedFatal, s.State())
	assert.Equal(t, 3, d.configureCalls, "exactly the retry budget, never more")
	assert.Equal(t, 1, rebooted, "fatal failure escalates to a device restart")
	assert.Contains(t, s.Health(), "failed_fatal")
}
