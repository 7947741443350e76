package segment

import (
	"os"

	"github.com/shmbus/shmbus/internal/shmerr"
)

// OpenMode selects the attach behavior of Open.
type OpenMode int

const (
	// OpenOrCreate attaches to an existing segment or creates one if
	// absent.
	OpenOrCreate OpenMode = iota
	// ForceRecreate unlinks any prior segment with this name (absence
	// is not an error), then creates a fresh one.
	ForceRecreate
	// OpenExistingOnly attaches to an existing segment and fails with
	// a NotFound error if none exists; it never creates.
	OpenExistingOnly
)

// Segment is a named shared region mapped into this process. It knows
// only about bytes and a file path — slot/frame semantics live above
// it in the ring and message layers.
type Segment struct {
	File    *os.File
	Mem     []byte
	Path    string
	Created bool // true if this call performed the create-and-size step
}

// Info is the read-only peek returned by ProbeHeader.
type Info struct {
	Capacity     uint32
	SlotSize     uint32
	NumConsumers uint32
	ByteSize     uint64
}

// Open attaches to (or creates) the named segment sized to totalBytes,
// per mode. It performs no header initialization beyond returning the
// mapped bytes; the ring package owns the "capacity==0 means
// uninitialized" protocol over those bytes.
func Open(name string, totalBytes uint64, mode OpenMode) (*Segment, error) {
	if mode == ForceRecreate {
		// Ignore absence; only a real failure to remove is notable,
		// and even that we swallow since a stale, unremovable link
		// would surface again at the create step below.
		_ = unlinkPath(pathFor(name))
	}

	switch mode {
	case ForceRecreate:
		return createSegment(name, totalBytes)
	case OpenExistingOnly:
		seg, err := openSegment(name, totalBytes)
		if os.IsNotExist(err) {
			return nil, shmerr.New(shmerr.NotFound, "segment.Open", err)
		}
		if err != nil {
			return nil, shmerr.New(shmerr.IO, "segment.Open", err)
		}
		return seg, nil
	default: // OpenOrCreate
		seg, err := openSegment(name, totalBytes)
		if err == nil {
			return seg, nil
		}
		if !os.IsNotExist(err) {
			return nil, shmerr.New(shmerr.IO, "segment.Open", err)
		}
		seg, err = createSegment(name, totalBytes)
		if err != nil && os.IsExist(err) {
			// Lost the create race to another attacher; fall back to
			// attaching what they created.
			return openSegment(name, totalBytes)
		}
		return seg, err
	}
}

// ProbeHeader reads just the fixed header of an existing segment
// without attaching long-term. It returns (nil, nil) if the segment
// does not exist or is smaller than the minimal header — that is not
// an error, it is the "no segment" answer.
func ProbeHeader(name string) (*Info, error) {
	return probeHeader(name)
}

// Unlink removes the name binding. Existing mappings in other
// processes remain valid until they unmap. Removing an already-absent
// segment is not an error.
func Unlink(name string) error {
	if err := unlinkPath(pathFor(name)); err != nil && !os.IsNotExist(err) {
		return shmerr.New(shmerr.IO, "segment.Unlink", err)
	}
	return nil
}

// Exists reports whether a segment with this name is currently linked.
func Exists(name string) bool {
	_, err := os.Stat(pathFor(name))
	return err == nil
}

// Close unmaps the memory and closes the file descriptor. It does not
// unlink the name; lifetime policy is a deployment decision (see
// Unlink).
func (s *Segment) Close() error {
	var firstErr error
	if s.Mem != nil {
		if err := unmapMemory(s.Mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.Mem = nil
	}
	if s.File != nil {
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.File = nil
	}
	return firstErr
}

// IsCompatible reports whether an existing segment's write-once header
// fields and byte size match the expected construction parameters.
func IsCompatible(name string, expectedCapacity, expectedSlotSize, expectedNumConsumers uint32) (bool, error) {
	info, err := ProbeHeader(name)
	if err != nil {
		return false, err
	}
	if info == nil {
		return false, nil
	}
	expectedSize := TotalBytes(uint64(expectedCapacity), uint64(expectedSlotSize), expectedNumConsumers)
	return info.ByteSize == expectedSize &&
		info.Capacity == expectedCapacity &&
		info.SlotSize == expectedSlotSize &&
		info.NumConsumers == expectedNumConsumers, nil
}
