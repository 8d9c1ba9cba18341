package models

import (
	"sync"
	"time"
)

// SessionState represents the current state of a stream session.
type SessionState string

const (
	SessionStateStreaming  SessionState = "streaming"
	SessionStateTerminated SessionState = "terminated"
)

// StreamSession tracks one viewer connection for its whole life. A session
// is bound to a single transport handle; once terminated it is never
// restarted, the client has to issue a new request.
type StreamSession struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time

	// Stats
	FramesSent uint64
	BytesSent  uint64

	state   SessionState
	lastErr error

	mu sync.RWMutex // Protects concurrent access
}

// NewStreamSession creates a session in the streaming state.
func NewStreamSession(id, remoteAddr string) *StreamSession {
	return &StreamSession{
		ID:         id,
		RemoteAddr: remoteAddr,
		StartedAt:  time.Now(),
		state:      SessionStateStreaming,
	}
}

// RecordPart accounts for one multipart part delivered to the viewer.
func (s *StreamSession) RecordPart(payloadLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FramesSent++
	s.BytesSent += uint64(payloadLen)
}

// Terminate moves the session to its terminal state, keeping the error that
// ended it. Calling it twice keeps the first error.
func (s *StreamSession) Terminate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionStateTerminated {
		return
	}
	s.state = SessionStateTerminated
	s.lastErr = err
}

// GetState safely returns the current session state.
func (s *StreamSession) GetState() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError returns the error that terminated the session, if any.
func (s *StreamSession) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Stats returns a consistent snapshot of the delivery counters.
func (s *StreamSession) Stats() (frames, bytes uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FramesSent, s.BytesSent
}
