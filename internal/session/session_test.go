package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"helmcam/internal/encoder"
	"helmcam/internal/metrics"
	"helmcam/internal/mjpeg"
	"helmcam/pkg/models"
)

// instrumentedSource hands out JPEG device frames and tracks how many
// buffers are outstanding at any moment.
type instrumentedSource struct {
	limit    int // successful acquires before capture starts failing
	acquires int
	releases int

	outstanding    int
	maxOutstanding int
}

func (s *instrumentedSource) Acquire() (*models.FrameBuffer, error) {
	if s.acquires >= s.limit {
		return nil, models.ErrCaptureFailure
	}
	s.acquires++
	s.outstanding++
	if s.outstanding > s.maxOutstanding {
		s.maxOutstanding = s.outstanding
	}
	return &models.FrameBuffer{
		Data:       []byte(fmt.Sprintf("\xff\xd8frame-%d\xff\xd9", s.acquires)),
		Format:     models.FormatJPEG,
		Provenance: models.ProvenanceDevice,
	}, nil
}

func (s *instrumentedSource) Release(fb *models.FrameBuffer) {
	if fb == nil || fb.Provenance != models.ProvenanceDevice {
		return
	}
	s.releases++
	s.outstanding--
}

// countingWriter accepts everything and counts payload bytes.
type countingWriter struct {
	chunks int
	bytes  int
}

func (w *countingWriter) WriteChunk(p []byte) error {
	w.chunks++
	w.bytes += len(p)
	return nil
}

// failAtWriter fails on the n-th chunk (1-based).
type failAtWriter struct {
	failAt   int
	attempts int
}

func (w *failAtWriter) WriteChunk(p []byte) error {
	w.attempts++
	if w.attempts >= w.failAt {
		return models.ErrTransportFailure
	}
	return nil
}

func newLoop(src *instrumentedSource, w mjpeg.ChunkWriter) (*Loop, *models.StreamSession) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	sess := models.NewStreamSession("test-session", "10.0.0.2")
	loop := NewLoop(sess, src, encoder.New(src, 80), mjpeg.NewEncoder(w), log, metrics.New())
	return loop, sess
}

func TestLoopHundredIterations(t *testing.T) {
	src := &instrumentedSource{limit: 100}
	w := &countingWriter{}
	loop, sess := newLoop(src, w)

	err := loop.Run()
	assert.True(t, errors.Is(err, models.ErrCaptureFailure))

	assert.Equal(t, 100, src.acquires)
	assert.Equal(t, 100, src.releases, "every acquire must be paired with a release")
	assert.Equal(t, 0, src.outstanding, "no buffer may remain outstanding after termination")
	assert.Equal(t, 1, src.maxOutstanding, "at most one buffer in flight per session")

	frames, _ := sess.Stats()
	assert.EqualValues(t, 100, frames)
	assert.Equal(t, models.SessionStateTerminated, sess.GetState())
}

func TestLoopCaptureAlwaysFails(t *testing.T) {
	src := &instrumentedSource{limit: 0}
	w := &countingWriter{}
	loop, sess := newLoop(src, w)

	err := loop.Run()
	assert.True(t, errors.Is(err, models.ErrCaptureFailure))

	assert.Equal(t, 0, w.bytes, "no partial part may be sent")
	assert.Equal(t, 0, src.outstanding)

	frames, bytes := sess.Stats()
	assert.EqualValues(t, 0, frames)
	assert.EqualValues(t, 0, bytes)
	assert.True(t, errors.Is(sess.LastError(), models.ErrCaptureFailure))
}

func TestLoopTransportFailureReleasesBuffer(t *testing.T) {
	// Fail on the payload chunk of the first part.
	src := &instrumentedSource{limit: 10}
	w := &failAtWriter{failAt: 3}
	loop, sess := newLoop(src, w)

	err := loop.Run()
	assert.True(t, errors.Is(err, models.ErrTransportFailure))

	assert.Equal(t, 1, src.acquires, "session must not continue past a transport failure")
	assert.Equal(t, 0, src.outstanding, "termination must release the held buffer")
	assert.Equal(t, 3, w.attempts)

	frames, _ := sess.Stats()
	assert.EqualValues(t, 0, frames, "a truncated part does not count as delivered")
}

func TestLoopTerminateKeepsFirstError(t *testing.T) {
	src := &instrumentedSource{limit: 0}
	loop, sess := newLoop(src, &countingWriter{})

	loop.Run()
	first := sess.LastError()
	sess.Terminate(errors.New("later"))
	assert.Equal(t, first, sess.LastError())
}
