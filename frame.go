package shmbus

import (
	"encoding/binary"
)

// frameHeaderSize is the fixed, little-endian, packed header that
// precedes every payload in a slot: type, payload size, a monotonic
// timestamp, and a per-queue sequence number. Explicit field-by-field
// encode/decode keeps the layout independent of compiler struct
// padding, which would otherwise differ between the writer and a
// reader built with a different toolchain.
const frameHeaderSize = 4 + 4 + 8 + 8

// FrameType tags a message's payload shape. The zero value, Unknown,
// is never produced deliberately; applications define their own
// values above HeartbeatType.
type FrameType uint32

const (
	UnknownType FrameType = iota
	MarketDataType
	OrderUpdateType
	HeartbeatType
)

// FrameHeader is the decoded form of the bytes written ahead of every
// payload in a slot.
type FrameHeader struct {
	Type        FrameType
	PayloadSize uint32
	TimestampNs uint64
	Sequence    uint64
}

func encodeFrameHeader(dst []byte, fh FrameHeader) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(fh.Type))
	binary.LittleEndian.PutUint32(dst[4:8], fh.PayloadSize)
	binary.LittleEndian.PutUint64(dst[8:16], fh.TimestampNs)
	binary.LittleEndian.PutUint64(dst[16:24], fh.Sequence)
}

func decodeFrameHeader(src []byte) FrameHeader {
	return FrameHeader{
		Type:        FrameType(binary.LittleEndian.Uint32(src[0:4])),
		PayloadSize: binary.LittleEndian.Uint32(src[4:8]),
		TimestampNs: binary.LittleEndian.Uint64(src[8:16]),
		Sequence:    binary.LittleEndian.Uint64(src[16:24]),
	}
}
