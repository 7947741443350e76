package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shmbus/shmbus/internal/segment"
)

func newTestRing(t *testing.T, capacity, slotSize, numConsumers uint32) *Ring {
	t.Helper()
	mem := make([]byte, segment.TotalBytes(uint64(capacity), uint64(slotSize), numConsumers))
	r, err := Attach(mem, capacity, slotSize, numConsumers)
	require.NoError(t, err)
	return r
}

func TestAttachRejectsBadParameters(t *testing.T) {
	mem := make([]byte, segment.TotalBytes(8, 4, 1))
	_, err := Attach(mem, 1, 4, 1) // capacity < 2
	assert.Error(t, err)
	_, err = Attach(mem, 8, 0, 1) // slotSize == 0
	assert.Error(t, err)
	_, err = Attach(mem, 8, 4, 0) // numConsumers == 0
	assert.Error(t, err)
	_, err = Attach(mem[:4], 8, 4, 1) // mem too small
	assert.Error(t, err)
}

func TestPushPopRoundTrip(t *testing.T) {
	r := newTestRing(t, 4, 8, 1)

	ok, err := r.Push([]byte("msg00000"))
	require.NoError(t, err)
	assert.True(t, ok)

	dst := make([]byte, 8)
	ok, err = r.Pop(0, dst)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("msg00000"), dst)

	empty, err := r.IsEmpty(0)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPopEmptyReturnsFalse(t *testing.T) {
	r := newTestRing(t, 4, 8, 1)
	dst := make([]byte, 8)
	ok, err := r.Pop(0, dst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFullnessUsesSlowestConsumer(t *testing.T) {
	// capacity 4 means 3 usable slots (one-slot gap rule).
	r := newTestRing(t, 4, 8, 2)
	slot := make([]byte, 8)

	for i := 0; i < 3; i++ {
		ok, err := r.Push(slot)
		require.NoError(t, err)
		require.True(t, ok, "push %d should succeed", i)
	}

	assert.True(t, r.IsFull(), "ring should be full relative to both untouched consumers")

	ok, err := r.Push(slot)
	require.NoError(t, err)
	assert.False(t, ok, "push beyond capacity must fail, not overwrite unread data")

	// consumer 0 drains one slot; consumer 1 has not, so the ring is
	// still full relative to the slowest consumer.
	_, err = r.Pop(0, slot)
	require.NoError(t, err)
	assert.True(t, r.IsFull(), "fullness is gated by the slowest consumer, not any one")

	_, err = r.Pop(1, slot)
	require.NoError(t, err)
	assert.False(t, r.IsFull())
}

func TestBroadcastToMultipleConsumers(t *testing.T) {
	r := newTestRing(t, 8, 4, 3)
	require.True(t, pushString(t, r, "AAAA"))

	for cid := uint32(0); cid < 3; cid++ {
		dst := make([]byte, 4)
		ok, err := r.Pop(cid, dst)
		require.NoError(t, err)
		require.True(t, ok, "consumer %d should see the broadcast message", cid)
		assert.Equal(t, "AAAA", string(dst))
	}
}

func TestPopOutOfRangeConsumer(t *testing.T) {
	r := newTestRing(t, 4, 4, 2)
	dst := make([]byte, 4)
	_, err := r.Pop(2, dst)
	assert.Error(t, err)
}

func TestLenTracksUnreadDepth(t *testing.T) {
	r := newTestRing(t, 8, 4, 1)
	for i := 0; i < 3; i++ {
		ok, err := r.Push([]byte("abcd"))
		require.NoError(t, err)
		require.True(t, ok)
	}
	n, err := r.Len(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)

	dst := make([]byte, 4)
	_, err = r.Pop(0, dst)
	require.NoError(t, err)

	n, err = r.Len(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)
}

func TestSecondAttachDoesNotReinitialize(t *testing.T) {
	mem := make([]byte, segment.TotalBytes(8, 4, 1))
	r1, err := Attach(mem, 8, 4, 1)
	require.NoError(t, err)

	ok, err := r1.Push([]byte("abcd"))
	require.NoError(t, err)
	require.True(t, ok)

	// A second attacher over the same bytes must see the already-pushed
	// message rather than re-zeroing the header.
	r2, err := Attach(mem, 8, 4, 1)
	require.NoError(t, err)
	n, err := r2.Len(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
}

func pushString(t *testing.T, r *Ring, s string) bool {
	t.Helper()
	ok, err := r.Push([]byte(s))
	require.NoError(t, err)
	return ok
}
