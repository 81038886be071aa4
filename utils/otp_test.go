package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		otp, err := GenerateSecureOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "non-digit in OTP: %s", otp)
		}
		seen[otp] = true
	}
	// 100 draws from a million-value space should essentially never all collide.
	assert.Greater(t, len(seen), 50)
}
