package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	testCases := []struct {
		input string
		valid bool
	}{
		{"http://example.com/pack.zip", true},
		{"https://example.com/pack.zip?dl=1", true},
		{"HTTPS://cdn.example.com:8443/pack.zip", true},
		{"", false},
		{"ftp://example.com/pack.zip", false},
		{"file:///srv/pack.zip", false},
		{"not-a-url", false},
		{"https://", false},
		{"://example.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			u, err := ParseURL(tc.input)
			if tc.valid {
				require.NoError(t, err)
				assert.NotEmpty(t, u.Host)
				assert.True(t, ValidURL(tc.input))
			} else {
				require.ErrorIs(t, err, ErrInvalidURL)
				assert.False(t, ValidURL(tc.input))
			}
		})
	}
}
