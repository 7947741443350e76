package shmbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameHeaderEncodeDecodeRoundTrip(t *testing.T) {
	fh := FrameHeader{
		Type:        OrderUpdateType,
		PayloadSize: 42,
		TimestampNs: 1234567890,
		Sequence:    7,
	}
	buf := make([]byte, frameHeaderSize)
	encodeFrameHeader(buf, fh)

	got := decodeFrameHeader(buf)
	assert.Equal(t, fh, got)
}

func TestFrameHeaderSizeIsFixed(t *testing.T) {
	assert.Equal(t, 24, frameHeaderSize)
}
