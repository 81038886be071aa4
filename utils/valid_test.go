package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "already E164",
			input: "+14155551234",
			want:  "+14155551234",
		},
		{
			name:  "missing plus",
			input: "14155551234",
			want:  "+14155551234",
		},
		{
			name:  "spaces and dashes stripped",
			input: "+1 415-555-1234",
			want:  "+14155551234",
		},
		{
			name:  "empty is allowed",
			input: "",
			want:  "",
		},
		{
			name:    "too short",
			input:   "+1234",
			wantErr: true,
		},
		{
			name:    "letters only",
			input:   "not-a-phone",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePhone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	got, err := SanitizeEmail("  Pat@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", got)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", SanitizeInput(" <b>hi</b> "))
	assert.Equal(t, "clean", SanitizeInput("clean\x00\x1f"))
}
