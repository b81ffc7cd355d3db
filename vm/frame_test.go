package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePushPopOrder(t *testing.T) {
	f := newFrame(4, 0, nil)
	require.NoError(t, f.push(1))
	require.NoError(t, f.push(2))
	require.NoError(t, f.push(3))

	v, err := f.pop()
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestFrameStackOverflow(t *testing.T) {
	f := newFrame(2, 0, nil)
	require.NoError(t, f.push(1))
	require.NoError(t, f.push(2))
	assert.ErrorIs(t, f.push(3), ErrStackOverflow)
}

func TestFrameStackUnderflow(t *testing.T) {
	f := newFrame(1, 0, nil)
	_, err := f.pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)

	_, err = f.peek()
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestFramePopNIsDeepestFirst(t *testing.T) {
	f := newFrame(4, 0, nil)
	require.NoError(t, f.push(10))
	require.NoError(t, f.push(20))
	require.NoError(t, f.push(30))

	got, err := f.popN(2)
	require.NoError(t, err)
	assert.Equal(t, []int32{20, 30}, got)

	_, err = f.popN(5)
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestFrameLocalsSeededFromArgs(t *testing.T) {
	f := newFrame(0, 3, []int32{7, 8})
	assert.Equal(t, int32(7), f.local(0))
	assert.Equal(t, int32(8), f.local(1))
	assert.Equal(t, int32(0), f.local(2))

	f.setLocal(2, 42)
	assert.Equal(t, int32(42), f.local(2))
}
