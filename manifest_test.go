package shmbus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shmbus/shmbus/internal/segment"
)

func TestLoadManifestOpensDeclaredQueues(t *testing.T) {
	name := NewAnonymousName()
	defer Unlink(name)

	dir := t.TempDir()
	path := filepath.Join(dir, "queues.toml")
	doc := "[[queue]]\n" +
		"name = \"" + name + "\"\n" +
		"capacity = 8\n" +
		"max_payload = 32\n" +
		"num_consumers = 2\n" +
		"force_recreate = true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Queue, 1)

	queues, err := m.OpenAll()
	require.NoError(t, err)
	defer func() {
		for _, q := range queues {
			q.Close()
		}
	}()

	require.Len(t, queues, 1)
	assert.Equal(t, uint32(8), queues[0].Capacity())
	assert.Equal(t, uint32(32), queues[0].MaxPayload())
}

func TestQueueSpecModeResolution(t *testing.T) {
	mode, err := QueueSpec{OpenExistingOnly: true}.mode()
	require.NoError(t, err)
	assert.Equal(t, segment.OpenExistingOnly, mode)

	mode, err = QueueSpec{}.mode()
	require.NoError(t, err)
	assert.Equal(t, segment.OpenOrCreate, mode)
}

func TestQueueSpecModeRejectsConflictingFlags(t *testing.T) {
	_, err := QueueSpec{ForceRecreate: true, OpenExistingOnly: true}.mode()
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, InvalidArgument, serr.Kind)
}

func TestQueueSpecOpenRejectsConflictingFlags(t *testing.T) {
	_, err := QueueSpec{ForceRecreate: true, OpenExistingOnly: true}.Open()
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, InvalidArgument, serr.Kind)
}
