package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testName(t *testing.T) string {
	t.Helper()
	return "test_" + t.Name()
}

func TestCreateAndAttach(t *testing.T) {
	name := testName(t)
	t.Cleanup(func() { Unlink(name) })

	total := TotalBytes(8, 16, 2)
	seg, err := Open(name, total, ForceRecreate)
	require.NoError(t, err)
	defer seg.Close()

	assert.True(t, seg.Created)
	assert.Len(t, seg.Mem, int(total))
}

func TestOpenExistingOnlyFailsWhenAbsent(t *testing.T) {
	name := testName(t)
	t.Cleanup(func() { Unlink(name) })

	_, err := Open(name, TotalBytes(8, 16, 1), OpenExistingOnly)
	require.Error(t, err)
}

func TestOpenOrCreateThenReattach(t *testing.T) {
	name := testName(t)
	t.Cleanup(func() { Unlink(name) })

	total := TotalBytes(8, 16, 1)
	seg1, err := Open(name, total, OpenOrCreate)
	require.NoError(t, err)
	require.True(t, seg1.Created)

	hdr := NewHeader(seg1.Mem)
	hdr.InitializeIfNeeded(8, 16, 1)
	hdr.SetHead(3)
	seg1.Close()

	seg2, err := Open(name, total, OpenOrCreate)
	require.NoError(t, err)
	defer seg2.Close()
	assert.False(t, seg2.Created)

	hdr2 := NewHeader(seg2.Mem)
	assert.Equal(t, uint32(3), hdr2.Head())
}

func TestProbeHeaderOnAbsentSegmentIsNilNotError(t *testing.T) {
	info, err := ProbeHeader("nonexistent_" + testName(t))
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestIsCompatible(t *testing.T) {
	name := testName(t)
	t.Cleanup(func() { Unlink(name) })

	seg, err := Open(name, TotalBytes(8, 16, 2), ForceRecreate)
	require.NoError(t, err)
	defer seg.Close()
	hdr := NewHeader(seg.Mem)
	hdr.InitializeIfNeeded(8, 16, 2)

	ok, err := IsCompatible(name, 8, 16, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsCompatible(name, 16, 16, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsCompatible(name, 8, 16, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnlinkIsIdempotent(t *testing.T) {
	name := testName(t)
	require.NoError(t, Unlink(name))
	require.NoError(t, Unlink(name))
}

func TestHeaderBytesGrowsWithConsumerCount(t *testing.T) {
	assert.Equal(t, uint64(FixedHeaderSize), HeaderBytes(0))
	assert.Equal(t, uint64(FixedHeaderSize+TailLineSize), HeaderBytes(1))
	assert.Equal(t, uint64(FixedHeaderSize+4*TailLineSize), HeaderBytes(4))
}
