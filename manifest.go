package shmbus

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shmbus/shmbus/internal/segment"
	"github.com/shmbus/shmbus/internal/shmerr"
)

// Manifest declares a fleet of named queues so a host process can
// describe "which segments exist and how they're shaped" as data,
// instead of wiring New calls by hand for each one.
type Manifest struct {
	Queue []QueueSpec `toml:"queue"`
}

// QueueSpec is one queue entry in a Manifest.
type QueueSpec struct {
	Name             string `toml:"name"`
	Capacity         uint32 `toml:"capacity"`
	MaxPayload       uint32 `toml:"max_payload"`
	NumConsumers     uint32 `toml:"num_consumers"`
	OpenExistingOnly bool   `toml:"open_existing_only"`
	ForceRecreate    bool   `toml:"force_recreate"`
}

// LoadManifest reads and parses a TOML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shmbus: read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("shmbus: parse manifest: %w", err)
	}
	return &m, nil
}

// mode resolves a QueueSpec's two boolean flags into an OpenMode. Both
// flags set at once is the same contradictory request New() rejects
// with InvalidArgument, not a preference to resolve silently.
func (s QueueSpec) mode() (segment.OpenMode, error) {
	if s.ForceRecreate && s.OpenExistingOnly {
		return 0, shmerr.New(shmerr.InvalidArgument, "shmbus.QueueSpec.mode", nil)
	}
	if s.ForceRecreate {
		return segment.ForceRecreate, nil
	}
	if s.OpenExistingOnly {
		return segment.OpenExistingOnly, nil
	}
	return segment.OpenOrCreate, nil
}

// Open constructs a Queue for this spec entry.
func (s QueueSpec) Open() (*Queue, error) {
	mode, err := s.mode()
	if err != nil {
		return nil, err
	}
	return newQueue(s.Name, s.Capacity, s.MaxPayload, s.NumConsumers, mode)
}

// OpenAll opens every queue declared in the manifest, closing any
// already-opened queue if a later entry fails.
func (m *Manifest) OpenAll() ([]*Queue, error) {
	queues := make([]*Queue, 0, len(m.Queue))
	for _, spec := range m.Queue {
		q, err := spec.Open()
		if err != nil {
			for _, opened := range queues {
				opened.Close()
			}
			return nil, fmt.Errorf("shmbus: open manifest queue %q: %w", spec.Name, err)
		}
		queues = append(queues, q)
	}
	return queues, nil
}
