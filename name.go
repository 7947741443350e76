package shmbus

import "github.com/google/uuid"

// NewAnonymousName generates a collision-resistant segment name for
// callers that don't need a stable, caller-chosen POSIX name — tests
// and short-lived, single-host fan-out being the common case.
func NewAnonymousName() string {
	return "anon-" + uuid.New().String()
}
