package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"helmcam/pkg/models"
)

func TestRegistryTotalsAcrossLifecycle(t *testing.T) {
	r := NewRegistry()

	a := models.NewStreamSession("a", "10.0.0.2")
	b := models.NewStreamSession("b", "10.0.0.3")

	r.Add(a)
	r.Add(b)
	assert.Equal(t, 2, r.ActiveCount())

	a.RecordPart(100)
	a.RecordPart(50)
	b.RecordPart(25)

	sessions, frames, bytes := r.Totals()
	assert.EqualValues(t, 2, sessions)
	assert.EqualValues(t, 3, frames)
	assert.EqualValues(t, 175, bytes)

	// Removal folds the session's counters into the lifetime totals.
	r.Remove(a)
	assert.Equal(t, 1, r.ActiveCount())
	sessions, frames, bytes = r.Totals()
	assert.EqualValues(t, 2, sessions)
	assert.EqualValues(t, 3, frames)
	assert.EqualValues(t, 175, bytes)

	// Removing twice must not double-count.
	r.Remove(a)
	_, frames, _ = r.Totals()
	assert.EqualValues(t, 3, frames)
}
