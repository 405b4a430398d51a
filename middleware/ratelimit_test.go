package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(2, 100*time.Millisecond)

	assert.True(t, limiter.Allow(1))
	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))

	// Another actor has their own window.
	assert.True(t, limiter.Allow(2))

	time.Sleep(120 * time.Millisecond)
	assert.True(t, limiter.Allow(1))
}

func TestRateLimiterZeroLimitDisables(t *testing.T) {
	limiter := NewRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow(1))
	}
}
