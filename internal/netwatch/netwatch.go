// Package netwatch keeps the node associated with a known wireless
// network: scan-and-connect at startup with a fixed SSID preference order,
// then best-effort periodic reconnection.
package netwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"helmcam/internal/metrics"
	"helmcam/pkg/models"
)

// Wireless is the network backend boundary: scanning, association and link
// status live with the platform, not here.
type Wireless interface {
	Scan() ([]string, error)
	Connect(ssid string) error
	Status() (models.Association, error)
}

// Supervisor owns NetworkState. Startup connection failure is fatal to
// service start; steady-state disassociation is retried on every poll,
// indefinitely and without a bounded-reconnect guarantee.
type Supervisor struct {
	wireless Wireless
	ssids    []string // preference order, most preferred first
	interval time.Duration
	log      *logrus.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	state models.NetworkState
}

// New creates a supervisor preferring the given SSIDs in order.
func New(wireless Wireless, ssids []string, interval time.Duration, log *logrus.Logger, m *metrics.Metrics) *Supervisor {
	return &Supervisor{
		wireless: wireless,
		ssids:    ssids,
		interval: interval,
		log:      log,
		metrics:  m,
		state:    models.NetworkState{Preferred: ssids},
	}
}

// Connect scans and associates with the first preferred network that is
// visible. If none is, the error is models.ErrNetworkUnavailable.
func (s *Supervisor) Connect() error {
	visible, err := s.wireless.Scan()
	if err != nil {
		return fmt.Errorf("%w: scan failed: %v", models.ErrNetworkUnavailable, err)
	}

	seen := make(map[string]bool, len(visible))
	for _, ssid := range visible {
		seen[ssid] = true
	}

	for _, ssid := range s.ssids {
		if !seen[ssid] {
			continue
		}
		if err := s.wireless.Connect(ssid); err != nil {
			s.log.WithError(err).WithField("ssid", ssid).Warn("association failed")
			continue
		}
		s.refreshStatus()
		s.log.WithField("ssid", ssid).Info("wireless associated")
		return nil
	}

	return fmt.Errorf("%w: none of %v visible", models.ErrNetworkUnavailable, s.ssids)
}

// Watch polls association state until the context ends, re-running the
// scan-and-connect procedure whenever the link is down.
func (s *Supervisor) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			assoc := s.refreshStatus()
			if assoc.Connected {
				continue
			}
			s.metrics.RecordNetworkReconnect()
			s.log.Warn("wireless disassociated, reconnecting")
			if err := s.Connect(); err != nil {
				s.log.WithError(err).Warn("reconnect failed")
			}
		}
	}
}

// State returns a snapshot for status reporting.
func (s *Supervisor) State() models.NetworkState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) refreshStatus() models.Association {
	assoc, err := s.wireless.Status()
	if err != nil {
		s.log.WithError(err).Warn("wireless status check failed")
		assoc = models.Association{}
	}

	s.mu.Lock()
	s.state.Current = assoc
	s.state.LastChecked = time.Now()
	s.mu.Unlock()
	return assoc
}
