// Package ring implements the lock-free, single-producer/multi-consumer
// broadcast ring: one writer advancing a shared head, N independent
// readers each advancing their own tail, bounded by the slowest reader.
//
// Open question (documented, not silently fixed): when two processes
// first attach to a fresh segment concurrently, both observe
// capacity==0 and both run Attach's initialization branch. This is
// safe only because every attacher is constructed with identical
// (capacity, slotSize, numConsumers) by contract — a caller that
// attaches with mismatched parameters is not defended against here;
// the compatibility check one layer up (see the segment package's
// IsCompatible) is what catches that misuse, and only for the
// non-initializing attacher. A first-attacher race with disagreeing
// parameters is unresolved by design.
package ring

import (
	"unsafe"

	"github.com/shmbus/shmbus/internal/segment"
	"github.com/shmbus/shmbus/internal/shmerr"
)

// Ring is the SPMC circular slot array layered over a mapped segment's
// bytes: segment.Header for the cursors, and the slot region that
// follows it for the framed payloads.
type Ring struct {
	hdr      segment.Header
	mem      []byte
	dataOff  uintptr
	capacity uint32
	slotSize uint32
}

// Attach builds a Ring over mem, initializing the header the first
// time any attacher observes capacity==0 (see the package doc for the
// attach-race caveat). mem must be at least
// segment.TotalBytes(capacity, slotSize, numConsumers) bytes.
func Attach(mem []byte, capacity, slotSize uint32, numConsumers uint32) (*Ring, error) {
	if capacity < 2 {
		return nil, shmerr.New(shmerr.InvalidArgument, "ring.Attach", nil)
	}
	if slotSize == 0 || numConsumers == 0 {
		return nil, shmerr.New(shmerr.InvalidArgument, "ring.Attach", nil)
	}
	need := segment.TotalBytes(uint64(capacity), uint64(slotSize), numConsumers)
	if uint64(len(mem)) < need {
		return nil, shmerr.New(shmerr.InvalidArgument, "ring.Attach", nil)
	}

	hdr := segment.NewHeader(mem)
	hdr.InitializeIfNeeded(uint64(capacity), uint64(slotSize), numConsumers)
	if !hdr.IsValid() {
		return nil, shmerr.New(shmerr.Incompatible, "ring.Attach", nil)
	}

	return &Ring{
		hdr:      hdr,
		mem:      mem,
		dataOff:  uintptr(segment.HeaderBytes(numConsumers)),
		capacity: hdr.Capacity(),
		slotSize: hdr.SlotSize(),
	}, nil
}

// Capacity returns the number of slots.
func (r *Ring) Capacity() uint32 { return r.capacity }

// SlotSize returns the per-slot byte size.
func (r *Ring) SlotSize() uint32 { return r.slotSize }

// NumConsumers returns the configured number of independent tails.
func (r *Ring) NumConsumers() uint32 { return r.hdr.NumConsumers() }

func (r *Ring) slotPtr(index uint32) unsafe.Pointer {
	off := r.dataOff + uintptr(index)*uintptr(r.slotSize)
	return unsafe.Pointer(uintptr(unsafe.Pointer(&r.mem[0])) + off)
}

func (r *Ring) slotBytes(index uint32) []byte {
	return unsafe.Slice((*byte)(r.slotPtr(index)), r.slotSize)
}

// minTail returns the slowest consumer's tail. The producer reads each
// tail with acquire ordering (P1): it must observe the effects of that
// consumer's most recent release store in Pop (C3) to know the slot is
// truly free.
func (r *Ring) minTail() uint32 {
	head := r.hdr.HeadRelaxed()
	n := r.hdr.NumConsumers()
	slowest := r.hdr.Tail(0)
	maxLag := (head + r.capacity - slowest) % r.capacity
	for i := uint32(1); i < n; i++ {
		t := r.hdr.Tail(i)
		if lag := (head + r.capacity - t) % r.capacity; lag > maxLag {
			slowest, maxLag = t, lag
		}
	}
	return slowest
}

// Push copies slotSize bytes from src into the slot at head and
// advances head, unless the queue is full relative to the slowest
// consumer. src must be exactly SlotSize() bytes; the ring treats it
// as an opaque buffer — framing is the message layer's job.
//
// Not safe to call from more than one producer concurrently.
func (r *Ring) Push(src []byte) (bool, error) {
	if uint32(len(src)) != r.slotSize {
		return false, shmerr.New(shmerr.InvalidArgument, "ring.Push", nil)
	}

	head := r.hdr.HeadRelaxed() // P-self: producer's own cursor, single writer
	minTail := r.minTail()      // P1: acquire

	next := (head + 1) % r.capacity
	if next == minTail {
		return false, nil // full: one-slot-gap rule
	}

	copy(r.slotBytes(head), src) // P2: plain write, ordered before P3 by its release

	r.hdr.SetHead(next) // P3: release, publishes P2
	return true, nil
}

// Pop copies the slot at consumerID's tail into dst and advances that
// tail, unless the queue is empty for this consumer.
//
// Each consumerID may be called from at most one reader concurrently;
// distinct consumerIDs run fully independently.
func (r *Ring) Pop(consumerID uint32, dst []byte) (bool, error) {
	if consumerID >= r.hdr.NumConsumers() {
		return false, shmerr.New(shmerr.OutOfRange, "ring.Pop", nil)
	}
	if uint32(len(dst)) != r.slotSize {
		return false, shmerr.New(shmerr.InvalidArgument, "ring.Pop", nil)
	}

	tail := r.hdr.TailRelaxed(consumerID) // C-self: this consumer's own cursor
	head := r.hdr.Head()                  // C1: acquire, pairs with P3; sees P2

	if tail == head {
		return false, nil // empty for this consumer
	}

	copy(dst, r.slotBytes(tail)) // C2: plain read, ordered after C1 by its acquire

	next := (tail + 1) % r.capacity
	r.hdr.SetTail(consumerID, next) // C3: release, pairs with P1
	return true, nil
}

// IsEmpty reports whether consumerID has no unread messages.
func (r *Ring) IsEmpty(consumerID uint32) (bool, error) {
	if consumerID >= r.hdr.NumConsumers() {
		return false, shmerr.New(shmerr.InvalidArgument, "ring.IsEmpty", nil)
	}
	return r.hdr.Tail(consumerID) == r.hdr.Head(), nil
}

// IsFull reports the producer's global fullness view: the next head
// would collide with the slowest consumer's tail.
func (r *Ring) IsFull() bool {
	head := r.hdr.HeadRelaxed()
	next := (head + 1) % r.capacity
	return next == r.minTail()
}

// Len returns the number of messages unread by consumerID.
func (r *Ring) Len(consumerID uint32) (uint32, error) {
	if consumerID >= r.hdr.NumConsumers() {
		return 0, shmerr.New(shmerr.InvalidArgument, "ring.Len", nil)
	}
	head := r.hdr.Head()
	tail := r.hdr.Tail(consumerID)
	if head >= tail {
		return head - tail, nil
	}
	return r.capacity - tail + head, nil
}
