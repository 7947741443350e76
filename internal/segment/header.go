// Package segment manages the named, memory-mapped shared region that
// backs a broadcast queue: creation, attach, header compatibility, and
// teardown. It knows nothing about frames or slot semantics — that is
// the ring package's concern — only about bytes, a name, and a fixed
// header prefix shared by every attacher.
package segment

import (
	"sync/atomic"
	"unsafe"
)

// Layout constants for the fixed portion of the shared header. The
// scalar fields (magic, version, head, capacity, slotSize,
// numConsumers) always live at these offsets regardless of
// numConsumers, so they can be read by ProbeHeader without first
// knowing how many consumer tails follow.
const (
	// Magic identifies a segment created by this package.
	Magic = "SHMBCAST"

	// Version is the current header layout version.
	Version = uint32(1)

	// FixedHeaderSize is the size, in bytes, of the fixed header
	// prefix (magic/version/flags/head/capacity/slotSize/
	// numConsumers), padded to a cache line so that the atomic
	// head field never shares a line with any consumer tail. Head
	// and the write-once scalars share this one line.
	FixedHeaderSize = 64

	// TailLineSize is the padded size of each consumer tail entry;
	// every tail gets its own cache line to avoid false sharing
	// between independent consumers and the producer.
	TailLineSize = 64
)

const (
	offMagic        = 0
	offVersion      = 8
	offFlags        = 12
	offHead         = 16
	offCapacity     = 20
	offSlotSize     = 24
	offNumConsumers = 28
)

// Header is a typed, pointer-arithmetic view over the fixed prefix and
// the variable-length consumer-tail array of a mapped segment. It does
// not own the memory; callers must keep the backing []byte alive.
type Header struct {
	base unsafe.Pointer
}

// NewHeader wraps the base of a mapped region as a Header view.
func NewHeader(mem []byte) Header {
	if len(mem) == 0 {
		return Header{}
	}
	return Header{base: unsafe.Pointer(&mem[0])}
}

func (h Header) ptr(off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h.base) + off)
}

// Magic returns the 8-byte magic stamp.
func (h Header) Magic() [8]byte {
	return *(*[8]byte)(h.ptr(offMagic))
}

// SetMagic sets the magic stamp. Write-once, plain store: see the
// attach-race discussion in the ring package.
func (h Header) SetMagic(m [8]byte) {
	*(*[8]byte)(h.ptr(offMagic)) = m
}

// FormatVersion returns the header layout version.
func (h Header) FormatVersion() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offVersion)))
}

// SetFormatVersion sets the header layout version.
func (h Header) SetFormatVersion(v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(offVersion)), v)
}

// Head returns the producer write cursor (slot index). Acquire
// semantics: pairs with the producer's release store in push (see
// ring.Ring.Push), so a consumer observing a new head also observes
// the slot bytes the producer wrote before publishing it.
func (h Header) Head() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offHead)))
}

// HeadRelaxed returns the head with relaxed ordering, for the
// producer's own read of its cursor (single writer, no need to
// synchronize with itself).
func (h Header) HeadRelaxed() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offHead)))
}

// SetHead stores the new head with release semantics, publishing any
// slot bytes the producer wrote before the call.
func (h Header) SetHead(v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(offHead)), v)
}

// Capacity returns the slot count. Write-once after initialization.
func (h Header) Capacity() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offCapacity)))
}

// SetCapacity sets the slot count. Called only during initialization.
func (h Header) SetCapacity(v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(offCapacity)), v)
}

// SlotSize returns the per-slot byte size. Write-once.
func (h Header) SlotSize() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offSlotSize)))
}

// SetSlotSize sets the per-slot byte size. Called only during
// initialization.
func (h Header) SetSlotSize(v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(offSlotSize)), v)
}

// NumConsumers returns the number of independent consumer tails.
// Write-once.
func (h Header) NumConsumers() uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(offNumConsumers)))
}

// SetNumConsumers sets the number of consumer tails. Called only
// during initialization.
func (h Header) SetNumConsumers(v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(offNumConsumers)), v)
}

// tailOffset returns the byte offset of consumer i's tail within the
// mapped region. Each tail occupies its own TailLineSize-byte line.
func tailOffset(i uint32) uintptr {
	return FixedHeaderSize + uintptr(i)*TailLineSize
}

// Tail returns consumer i's read cursor. Acquire semantics when read
// by the producer computing the min tail (pairs with the consumer's
// release store in pop); a consumer reading its own tail may use
// TailRelaxed instead.
func (h Header) Tail(i uint32) uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(tailOffset(i))))
}

// TailRelaxed reads a tail with relaxed ordering, for a consumer
// reading its own cursor.
func (h Header) TailRelaxed(i uint32) uint32 {
	return atomic.LoadUint32((*uint32)(h.ptr(tailOffset(i))))
}

// SetTail stores consumer i's read cursor with release semantics,
// publishing the fact that the slot it just read is now free.
func (h Header) SetTail(i uint32, v uint32) {
	atomic.StoreUint32((*uint32)(h.ptr(tailOffset(i))), v)
}

// HeaderBytes computes the total header size for a given consumer
// count: the fixed prefix plus one cache-line-padded tail per
// consumer. It must be computed, never hardcoded — the trailing
// consumer-tail array is run-time sized.
func HeaderBytes(numConsumers uint32) uint64 {
	return uint64(FixedHeaderSize) + uint64(numConsumers)*uint64(TailLineSize)
}

// TotalBytes computes the full segment size for the given ring
// parameters: header plus capacity*slotSize bytes of slot region.
func TotalBytes(capacity, slotSize uint64, numConsumers uint32) uint64 {
	return HeaderBytes(numConsumers) + capacity*slotSize
}

// IsValid reports whether the header carries this package's magic and
// a supported format version.
func (h Header) IsValid() bool {
	return h.Magic() == magicBytes() && h.FormatVersion() == Version
}

func magicBytes() [8]byte {
	var m [8]byte
	copy(m[:], Magic)
	return m
}

// Initialized reports whether this header has completed the
// first-writer initialization (capacity != 0 is the sentinel, per the
// "header with capacity==0 is uninitialized" rule).
func (h Header) Initialized() bool {
	return h.Capacity() != 0
}

// InitializeIfNeeded performs the one-time, non-atomic initialization
// described by the attach-race policy: if capacity is still zero, this
// writer stamps magic/version and the write-once scalars and zeroes
// head and every tail. Two processes racing to attach the same fresh
// segment both take this branch and both write identical values,
// because both were constructed with identical (capacity, slotSize,
// numConsumers) by contract; a caller that disagrees is caught by the
// compatibility check instead, not defended against here (see the
// open question in the ring package's doc comment).
func (h Header) InitializeIfNeeded(capacity, slotSize uint64, numConsumers uint32) {
	if h.Initialized() {
		return
	}
	h.SetMagic(magicBytes())
	h.SetFormatVersion(Version)
	h.SetHead(0)
	for i := uint32(0); i < numConsumers; i++ {
		h.SetTail(i, 0)
	}
	h.SetSlotSize(uint32(slotSize))
	h.SetNumConsumers(numConsumers)
	h.SetCapacity(uint32(capacity))
}
