package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1:risk"))
	assert.True(t, l.Allow("10.0.0.1:risk"))
	assert.False(t, l.Allow("10.0.0.1:risk"))
	assert.True(t, l.Allow("10.0.0.2:risk"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1:risk"))
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	l := New(5, 5)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(11 * time.Minute)
	l.Allow("b")
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Sweep())
}
