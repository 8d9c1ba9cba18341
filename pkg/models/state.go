package models

import "time"

// CaptureState is the camera bring-up state. Transitions happen only inside
// the capture supervisor, and only before any session is allowed to start,
// so sessions read it as a plain precondition.
type CaptureState string

const (
	CaptureUninitialized CaptureState = "uninitialized"
	CaptureInitializing  CaptureState = "initializing"
	CaptureVerified      CaptureState = "verified"
	CaptureFailedFatal   CaptureState = "failed_fatal"
)

// Association describes the current wireless link as reported by the
// network backend.
type Association struct {
	Connected bool
	SSID      string
	IPAddress string
	RSSI      int // dBm, 0 when unknown
}

// NetworkState is the network supervisor's view of the world. Mutated only
// by the supervisor, read by status reporting.
type NetworkState struct {
	Preferred   []string // SSID precedence, most preferred first
	Current     Association
	LastChecked time.Time
}
