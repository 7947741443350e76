//go:build unix

package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/shmbus/shmbus/internal/shmerr"
)

func init() {
	unmapMemory = munmapImpl
}

var unmapMemory func([]byte) error

// pathFor returns the backing file path for a segment name. /dev/shm
// is preferred when present (tmpfs, no disk I/O); otherwise it falls
// back to the OS temp directory.
func pathFor(name string) string {
	base := "shmbus_" + sanitize(name)
	if shmDirAvailable() {
		return filepath.Join("/dev/shm", base)
	}
	return filepath.Join(os.TempDir(), base)
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '/' || c == os.PathSeparator {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return "default"
	}
	return string(out)
}

func shmDirAvailable() bool {
	info, err := os.Stat("/dev/shm")
	return err == nil && info.IsDir()
}

func createSegment(name string, totalBytes uint64) (*Segment, error) {
	path := pathFor(name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, err
		}
		return nil, shmerr.New(shmerr.IO, "segment.create.open", err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(totalBytes)); err != nil {
		cleanup()
		return nil, shmerr.New(shmerr.IO, "segment.create.truncate", err)
	}

	mem, err := mmapFile(file, int(totalBytes))
	if err != nil {
		cleanup()
		return nil, shmerr.New(shmerr.IO, "segment.create.mmap", err)
	}

	return &Segment{File: file, Mem: mem, Path: path, Created: true}, nil
}

func openSegment(name string, totalBytes uint64) (*Segment, error) {
	path := pathFor(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, shmerr.New(shmerr.IO, "segment.open.stat", err)
	}

	size := info.Size()
	if uint64(size) < totalBytes {
		// Idempotent truncation: grow a short-lived segment created
		// before an expected resize. Shrinking is never attempted —
		// an existing segment that is already larger is left as-is.
		if err := file.Truncate(int64(totalBytes)); err != nil {
			file.Close()
			return nil, shmerr.New(shmerr.IO, "segment.open.truncate", err)
		}
		size = int64(totalBytes)
	}

	mem, err := mmapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, shmerr.New(shmerr.IO, "segment.open.mmap", err)
	}

	return &Segment{File: file, Mem: mem, Path: path}, nil
}

func probeHeader(name string) (*Info, error) {
	path := pathFor(name)

	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, shmerr.New(shmerr.IO, "segment.probe.open", err)
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return nil, shmerr.New(shmerr.IO, "segment.probe.stat", err)
	}
	if st.Size() < FixedHeaderSize {
		return nil, nil
	}

	mem, err := mmapFileReadOnly(file, FixedHeaderSize)
	if err != nil {
		return nil, shmerr.New(shmerr.IO, "segment.probe.mmap", err)
	}
	defer munmapImpl(mem)

	h := NewHeader(mem)
	return &Info{
		Capacity:     h.Capacity(),
		SlotSize:     h.SlotSize(),
		NumConsumers: h.NumConsumers(),
		ByteSize:     uint64(st.Size()),
	}, nil
}

func unlinkPath(path string) error {
	return os.Remove(path)
}

func mmapFile(file *os.File, size int) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("mmap: zero-size segment")
	}
	data, err := syscall.Mmap(int(file.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return data, nil
}

func mmapFileReadOnly(file *os.File, size int) ([]byte, error) {
	data, err := syscall.Mmap(int(file.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return data, nil
}

func munmapImpl(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := syscall.Munmap(data); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}

