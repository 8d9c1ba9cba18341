package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmcam/pkg/models"
)

func TestBufferPoolExhaustion(t *testing.T) {
	p := newBufferPool(2, 16, true)

	a, err := p.get()
	require.NoError(t, err)
	b, err := p.get()
	require.NoError(t, err)
	assert.Equal(t, 2, p.outstanding())

	_, err = p.get()
	assert.True(t, errors.Is(err, models.ErrCaptureFailure),
		"an empty pool is a capture failure, not an allocation")

	p.put(a)
	p.put(b)
	assert.Equal(t, 0, p.outstanding())

	_, err = p.get()
	assert.NoError(t, err)
}

func TestBufferPoolLazyAllocation(t *testing.T) {
	p := newBufferPool(1, 8, false)

	b, err := p.get()
	require.NoError(t, err)
	assert.Equal(t, 8, cap(b))
	assert.Len(t, b, 0)
}

func TestBufferPoolDoubleReleaseDoesNotGrow(t *testing.T) {
	p := newBufferPool(1, 8, true)

	b, err := p.get()
	require.NoError(t, err)
	p.put(b)
	p.put(b)

	_, err = p.get()
	require.NoError(t, err)
	_, err = p.get()
	assert.Error(t, err, "double release must not add capacity")
}
