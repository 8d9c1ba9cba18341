package session

import (
	"sync"

	"helmcam/pkg/models"
)

// Registry keeps the in-memory set of live sessions plus lifetime delivery
// totals for status reporting.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*models.StreamSession

	totalSessions uint64
	totalFrames   uint64
	totalBytes    uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*models.StreamSession),
	}
}

// Add registers a freshly created session.
func (r *Registry) Add(s *models.StreamSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[s.ID] = s
	r.totalSessions++
}

// Remove drops a terminated session and folds its counters into the
// lifetime totals.
func (r *Registry) Remove(s *models.StreamSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[s.ID]; !ok {
		return
	}
	delete(r.active, s.ID)
	frames, bytes := s.Stats()
	r.totalFrames += frames
	r.totalBytes += bytes
}

// ActiveCount returns the number of sessions currently streaming.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// Totals returns lifetime session, frame and byte counts, including frames
// already delivered by sessions still active.
func (r *Registry) Totals() (sessions, frames, bytes uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frames, bytes = r.totalFrames, r.totalBytes
	for _, s := range r.active {
		f, b := s.Stats()
		frames += f
		bytes += b
	}
	return r.totalSessions, frames, bytes
}
