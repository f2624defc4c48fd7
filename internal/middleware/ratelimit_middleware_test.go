package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidAuthRateLimiter_LimitsPerIP(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "attempt %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "sixth attempt within the window must be denied")
}

func TestInvalidAuthRateLimiter_IPsAreIndependent(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()

	for i := 0; i < 6; i++ {
		rl.Allow("10.0.0.1")
	}
	assert.True(t, rl.Allow("10.0.0.2"))
}
