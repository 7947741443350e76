package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNowNanosIsMonotonicAndNonZero(t *testing.T) {
	a := NowNanos()
	b := NowNanos()
	assert.Greater(t, a, uint64(0))
	assert.GreaterOrEqual(t, b, a)
}
