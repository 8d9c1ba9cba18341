package session

import (
	"github.com/sirupsen/logrus"

	"helmcam/internal/camera"
	"helmcam/internal/metrics"
	"helmcam/internal/mjpeg"
	"helmcam/pkg/models"
)

// FrameEncoder turns an acquired frame into a JPEG frame. Implementations
// own the input buffer from the moment they are called: on the pass-through
// path it comes back unchanged, on the re-encode and error paths the input
// has already been released.
type FrameEncoder interface {
	Encode(fb *models.FrameBuffer) (*models.FrameBuffer, error)
}

// Loop drives one viewer connection: acquire, encode, frame, write,
// release, repeated until the first failure. There is no pacing beyond what
// capture and transport naturally impose, and no in-session retry: capture,
// encode and transport failures are all terminal for the session.
type Loop struct {
	session *models.StreamSession
	source  camera.FrameSource
	encoder FrameEncoder
	parts   *mjpeg.Encoder
	log     *logrus.Logger
	metrics *metrics.Metrics
}

// NewLoop binds a session to its transport for the session's whole life.
func NewLoop(
	sess *models.StreamSession,
	source camera.FrameSource,
	enc FrameEncoder,
	parts *mjpeg.Encoder,
	log *logrus.Logger,
	m *metrics.Metrics,
) *Loop {
	return &Loop{
		session: sess,
		source:  source,
		encoder: enc,
		parts:   parts,
		log:     log,
		metrics: m,
	}
}

// Run streams until a failure ends the session, then reports the
// terminating error. Exactly one frame buffer is outstanding at any moment:
// the next acquire never happens before the previous release.
func (l *Loop) Run() error {
	for {
		fb, err := l.source.Acquire()
		if err != nil {
			l.metrics.RecordCaptureFailure()
			return l.terminate(err)
		}
		l.metrics.RecordFrameCaptured(len(fb.Data))

		jfb, err := l.encoder.Encode(fb)
		if err != nil {
			// The encoder released the input before reporting.
			l.metrics.RecordEncodeFailure()
			return l.terminate(err)
		}

		err = l.parts.WritePart(jfb.Data)
		n := len(jfb.Data)
		l.source.Release(jfb)
		if err != nil {
			l.metrics.RecordTransportFailure()
			return l.terminate(err)
		}

		l.session.RecordPart(n)
		l.metrics.RecordPartSent(n)
	}
}

// terminate closes the session without notifying the peer beyond the bytes
// already on the wire. A terminated session is never reconnected.
func (l *Loop) terminate(err error) error {
	l.session.Terminate(err)
	frames, bytes := l.session.Stats()
	l.log.WithFields(logrus.Fields{
		"session": l.session.ID,
		"client":  l.session.RemoteAddr,
		"frames":  frames,
		"bytes":   bytes,
		"error":   err,
	}).Info("stream session terminated")
	return err
}
