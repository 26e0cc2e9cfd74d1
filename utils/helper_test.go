package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	// no Redis in unit tests, so this exercises the time-derived fallback
	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 1000; i++ {
		n := GenerateOrderNumber(context.Background())
		assert.True(t, strings.HasPrefix(n, "SL"), "order number %q", n)
		assert.False(t, seen[n], "duplicate order number %q", n)
		seen[n] = true
		if prev != "" {
			assert.Greater(t, n, prev, "order numbers must be strictly increasing")
		}
		prev = n
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("juan@example.com"))
	assert.False(t, IsValidEmail("juan@"))
	assert.False(t, IsValidEmail("not-an-email"))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("+639171234567", CountryCode))
	assert.NoError(t, ValidatePhoneNumber("09171234567", CountryCode))
	assert.Error(t, ValidatePhoneNumber("12345", CountryCode))
}
