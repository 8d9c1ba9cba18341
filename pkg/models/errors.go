package models

import "errors"

// Failure taxonomy. Capture, encode and transport failures end the session
// they occur in and are otherwise absorbed. Init failure is fatal and leads
// to a device restart. Network unavailability is fatal at startup and
// retried forever afterwards.
var (
	ErrCaptureFailure     = errors.New("capture failure: device returned no frame")
	ErrEncodeFailure      = errors.New("encode failure: frame conversion failed")
	ErrTransportFailure   = errors.New("transport failure: chunk write failed")
	ErrInitFailure        = errors.New("init failure: camera configuration or self-test failed")
	ErrNetworkUnavailable = errors.New("network unavailable: no known network visible")
)
