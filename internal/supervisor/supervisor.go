// Package supervisor owns camera bring-up: configuration, sensor tuning,
// the mandatory self-test capture, bounded retry and fatal escalation.
package supervisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"helmcam/internal/camera"
	"helmcam/internal/metrics"
	"helmcam/pkg/models"
)

// RetryPolicy bounds the bring-up attempts. Both the configuration step and
// the self-test count toward the same attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the device's field behavior: three attempts,
// two seconds apart.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}

// Supervisor drives the camera through its bring-up state machine. It is
// the only writer of the capture state, and it finishes before any session
// starts, so readers never race it.
type Supervisor struct {
	device  camera.Device
	policy  RetryPolicy
	log     *logrus.Logger
	metrics *metrics.Metrics
	reboot  func()

	mu      sync.RWMutex
	state   models.CaptureState
	lastErr error
}

// New creates a supervisor. The reboot hook runs when retries are
// exhausted; a camera that cannot pass self-test must not serve frames, so
// there is no degraded mode.
func New(device camera.Device, policy RetryPolicy, log *logrus.Logger, m *metrics.Metrics, reboot func()) *Supervisor {
	return &Supervisor{
		device:  device,
		policy:  policy,
		log:     log,
		metrics: m,
		reboot:  reboot,
		state:   models.CaptureUninitialized,
	}
}

// Start brings the camera up. On success the state is verified and sessions
// may begin. Exhausting the retry budget moves to failed_fatal, fires the
// reboot hook once and returns an init failure.
func (s *Supervisor) Start() error {
	s.setState(models.CaptureInitializing)

	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		s.metrics.RecordInitAttempt()

		if err := s.attempt(); err != nil {
			lastErr = err
			s.setLastError(err)
			s.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     s.policy.MaxAttempts,
				"error":   err,
			}).Warn("camera bring-up attempt failed")

			if attempt < s.policy.MaxAttempts {
				time.Sleep(s.policy.Delay)
			}
			continue
		}

		s.setState(models.CaptureVerified)
		s.log.WithField("attempts", attempt).Info("camera verified")
		return nil
	}

	s.setState(models.CaptureFailedFatal)
	s.log.WithError(lastErr).Error("camera bring-up exhausted retries, restarting device")
	s.reboot()
	return fmt.Errorf("%w: %v", models.ErrInitFailure, lastErr)
}

// attempt runs one full bring-up cycle: configure, tune, then a self-test
// acquire-and-release. Silent partial bring-up (configuration reports
// success but capture cannot) is a real failure mode; the self-test is what
// catches it.
func (s *Supervisor) attempt() error {
	if err := s.device.Configure(); err != nil {
		return err
	}
	if err := s.device.Tune(); err != nil {
		return err
	}

	fb, err := s.device.Acquire()
	if err != nil {
		return errors.Wrap(err, "self-test capture")
	}
	s.device.Release(fb)
	return nil
}

// State returns the current capture state. Sessions require verified.
func (s *Supervisor) State() models.CaptureState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Health returns a human-readable camera health string for status
// reporting.
func (s *Supervisor) Health() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == models.CaptureVerified {
		return "ok"
	}
	if s.lastErr != nil {
		return fmt.Sprintf("%s: %v", s.state, s.lastErr)
	}
	return string(s.state)
}

func (s *Supervisor) setState(state models.CaptureState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Supervisor) setLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
