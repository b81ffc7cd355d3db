package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocIsZeroedAndHandlesAreDense(t *testing.T) {
	var h Heap

	h1 := h.Alloc(3)
	h2 := h.Alloc(0)
	assert.Equal(t, h1+1, h2)

	obj, err := h.Get(h1)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 0}, obj.Elements)
	assert.Equal(t, int32(3), obj.Length())

	obj2, err := h.Get(h2)
	require.NoError(t, err)
	assert.Equal(t, int32(0), obj2.Length())
}

func TestHeapGetInvalidHandle(t *testing.T) {
	var h Heap
	_, err := h.Get(0)
	assert.ErrorIs(t, err, ErrInvalidArrayHandle)

	h.Alloc(1)
	_, err = h.Get(-1)
	assert.ErrorIs(t, err, ErrInvalidArrayHandle)
	_, err = h.Get(1)
	assert.ErrorIs(t, err, ErrInvalidArrayHandle)
}

func TestHeapFreeAll(t *testing.T) {
	var h Heap
	handle := h.Alloc(2)
	h.FreeAll()
	_, err := h.Get(handle)
	assert.ErrorIs(t, err, ErrInvalidArrayHandle)
}
