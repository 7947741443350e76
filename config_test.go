package shmbus

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint32(1024), cfg.Capacity)
	assert.Equal(t, uint32(4096), cfg.MaxPayload)
	assert.Equal(t, uint32(1), cfg.NumConsumers)
}

func TestLoadFromEnvironment(t *testing.T) {
	os.Setenv("SHMBUS_NAME", "/market_data")
	os.Setenv("SHMBUS_CAPACITY", "2048")
	defer os.Unsetenv("SHMBUS_NAME")
	defer os.Unsetenv("SHMBUS_CAPACITY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/market_data", cfg.Name)
	assert.Equal(t, uint32(2048), cfg.Capacity)
}

func TestLoadOrDefaultFallsBackOnBadEnv(t *testing.T) {
	os.Setenv("SHMBUS_CAPACITY", "not-a-number")
	defer os.Unsetenv("SHMBUS_CAPACITY")

	cfg := LoadOrDefault()
	assert.Equal(t, Default().Capacity, cfg.Capacity)
}
