// Package shmbus implements a single-producer, multiple-consumer
// broadcast message queue backed by a named, memory-mapped shared
// segment: one writer, N independent readers, no locks, no blocking.
package shmbus

import (
	"sync/atomic"

	"github.com/shmbus/shmbus/internal/clock"
	"github.com/shmbus/shmbus/internal/ring"
	"github.com/shmbus/shmbus/internal/segment"
	"github.com/shmbus/shmbus/internal/shmerr"
	"github.com/shmbus/shmbus/internal/telemetry"
)

// Queue wraps a Ring Core with frame semantics: it assigns timestamps
// and per-instance sequence numbers, validates payload sizes, and owns
// the underlying segment's lifetime.
type Queue struct {
	seg        *segment.Segment
	ring       *ring.Ring
	maxPayload uint32
	slotSize   uint32
	sequence   uint64 // process-local, producer-only; not shared
	logger     *lifecycleLogger
	metrics    *telemetry.Metrics
}

// New constructs or attaches to a queue named name. capacity is the
// number of slots (must be ≥ 2, since one slot is always kept empty to
// distinguish full from empty); maxPayload bounds a single message's
// payload bytes; numConsumers is the number of independent readers.
//
// force_recreate and open_existing_only are mutually exclusive; when
// neither is set, New attaches to any existing compatible segment or
// creates one if absent, and fails with Incompatible if an existing
// segment's parameters don't match.
func New(name string, capacity, maxPayload, numConsumers uint32, opts ...Option) (*Queue, error) {
	cfg := options{}
	for _, o := range opts {
		o(&cfg)
	}
	mode := segment.OpenOrCreate
	switch {
	case cfg.forceRecreate && cfg.openExistingOnly:
		return nil, shmerr.New(shmerr.InvalidArgument, "shmbus.New", nil)
	case cfg.forceRecreate:
		mode = segment.ForceRecreate
	case cfg.openExistingOnly:
		mode = segment.OpenExistingOnly
	}
	return newQueue(name, capacity, maxPayload, numConsumers, mode)
}

// Option configures New.
type Option func(*options)

type options struct {
	forceRecreate    bool
	openExistingOnly bool
}

// WithForceRecreate unlinks any existing segment with this name before
// creating a fresh one.
func WithForceRecreate() Option { return func(o *options) { o.forceRecreate = true } }

// WithOpenExistingOnly fails with a NotFound error instead of creating
// a segment that doesn't already exist.
func WithOpenExistingOnly() Option { return func(o *options) { o.openExistingOnly = true } }

func newQueue(name string, capacity, maxPayload, numConsumers uint32, mode segment.OpenMode) (*Queue, error) {
	if maxPayload == 0 || capacity < 2 || numConsumers == 0 {
		return nil, shmerr.New(shmerr.InvalidArgument, "shmbus.New", nil)
	}

	slotSize := frameHeaderSize + maxPayload
	totalBytes := segment.TotalBytes(uint64(capacity), uint64(slotSize), numConsumers)

	if mode == segment.OpenOrCreate {
		compatible, err := segment.IsCompatible(name, capacity, slotSize, numConsumers)
		if err != nil {
			return nil, err
		}
		if segment.Exists(name) && !compatible {
			return nil, shmerr.New(shmerr.Incompatible, "shmbus.New", nil)
		}
	}

	seg, err := segment.Open(name, totalBytes, mode)
	if err != nil {
		return nil, err
	}

	r, err := ring.Attach(seg.Mem, capacity, slotSize, numConsumers)
	if err != nil {
		seg.Close()
		return nil, err
	}

	logger := newTelemetryLogger()
	if seg.Created {
		logger.segmentCreated(name, capacity, maxPayload, numConsumers)
	} else {
		logger.segmentAttached(name)
	}

	return &Queue{
		seg:        seg,
		ring:       r,
		maxPayload: maxPayload,
		slotSize:   slotSize,
		logger:     logger,
		metrics:    telemetry.NewMetrics(name),
	}, nil
}

// IsHeaderCompatible reports whether an existing segment named name
// matches the given construction parameters, without attaching to it.
func IsHeaderCompatible(name string, capacity, maxPayload, numConsumers uint32) (bool, error) {
	slotSize := frameHeaderSize + maxPayload
	return segment.IsCompatible(name, capacity, slotSize, numConsumers)
}

// Produce stages a frame (type, timestamp, sequence, payload) and
// pushes it onto the ring. It returns false, not an error, when the
// ring is full relative to the slowest consumer — the caller decides
// whether to drop, retry, or back off.
//
// Not safe to call concurrently with another Produce on the same
// Queue.
func (q *Queue) Produce(frameType FrameType, payload []byte) (bool, error) {
	if uint32(len(payload)) > q.maxPayload {
		return false, shmerr.New(shmerr.PayloadTooLarge, "shmbus.Produce", nil)
	}

	staging := make([]byte, q.slotSize)
	encodeFrameHeader(staging, FrameHeader{
		Type:        frameType,
		PayloadSize: uint32(len(payload)),
		TimestampNs: clock.NowNanos(),
		Sequence:    atomic.AddUint64(&q.sequence, 1) - 1,
	})
	copy(staging[frameHeaderSize:], payload)

	ok, err := q.ring.Push(staging)
	if err != nil {
		return false, err
	}
	if ok {
		q.metrics.MessagesProduced.Inc()
	} else {
		q.metrics.MessagesDropped.Inc()
	}
	return ok, nil
}

// Consume pops the next frame for consumerID into dst, which must be
// at least SlotSize() bytes. It returns false, not an error, when this
// consumer has nothing unread.
//
// Distinct consumerIDs may be called concurrently with each other and
// with Produce; the same consumerID must not be called concurrently
// with itself.
func (q *Queue) Consume(consumerID uint32, dst []byte) (bool, error) {
	if uint32(len(dst)) < q.slotSize {
		return false, shmerr.New(shmerr.InvalidArgument, "shmbus.Consume", nil)
	}
	ok, err := q.ring.Pop(consumerID, dst[:q.slotSize])
	if err != nil {
		return false, err
	}
	if ok {
		q.metrics.MessagesConsumed.WithLabelValues(consumerIDLabel(consumerID)).Inc()
	}
	return ok, nil
}

// DecodeFrame splits a buffer returned by Consume into its header and
// significant payload bytes.
func DecodeFrame(buf []byte) (FrameHeader, []byte) {
	fh := decodeFrameHeader(buf)
	return fh, buf[frameHeaderSize : frameHeaderSize+fh.PayloadSize]
}

// Capacity returns the number of slots in the ring.
func (q *Queue) Capacity() uint32 { return q.ring.Capacity() }

// MaxPayload returns the configured maximum payload size in bytes.
func (q *Queue) MaxPayload() uint32 { return q.maxPayload }

// SlotSize returns the per-slot byte size (frame header + MaxPayload),
// the minimum buffer length Consume requires.
func (q *Queue) SlotSize() uint32 { return q.slotSize }

// Len returns the number of unread messages for consumerID.
func (q *Queue) Len(consumerID uint32) (uint32, error) { return q.ring.Len(consumerID) }

// SampleDepth refreshes the per-consumer depth gauge from Len. It is
// meant to be called periodically by a monitoring loop, not from the
// Produce/Consume fast path.
func (q *Queue) SampleDepth(consumerID uint32) error {
	n, err := q.ring.Len(consumerID)
	if err != nil {
		return err
	}
	q.metrics.ConsumerDepth.WithLabelValues(consumerIDLabel(consumerID)).Set(float64(n))
	return nil
}

// IsEmpty reports whether consumerID has no unread messages.
func (q *Queue) IsEmpty(consumerID uint32) (bool, error) { return q.ring.IsEmpty(consumerID) }

// IsFull reports the producer's view: whether the next Produce would
// be rejected given the slowest consumer's current position.
func (q *Queue) IsFull() bool { return q.ring.IsFull() }

// Close unmaps the segment and closes its file descriptor. It does not
// remove the name binding; call Unlink separately when the deployment
// is tearing the queue down for good.
func (q *Queue) Close() error {
	q.logger.segmentClosed()
	return q.seg.Close()
}

// Unlink removes a queue's name binding. Existing attachments in other
// processes remain valid until they close.
func Unlink(name string) error { return segment.Unlink(name) }
