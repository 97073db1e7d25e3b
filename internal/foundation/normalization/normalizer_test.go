package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mode string

const (
	modeFast mode = "fast"
	modeSafe mode = "safe"
)

func newModeNormalizer() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{"fast": modeFast, "Safe": modeSafe}, modeSafe)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newModeNormalizer()
	tests := []struct {
		name     string
		input    string
		expected mode
	}{
		{"exact match", "fast", modeFast},
		{"case insensitive", "FAST", modeFast},
		{"key normalized at construction", "safe", modeSafe},
		{"with spaces", "  fast ", modeFast},
		{"unknown falls back", "turbo", modeSafe},
		{"empty falls back", "", modeSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newModeNormalizer()

	v, err := n.NormalizeWithError(" Fast")
	require.NoError(t, err)
	require.Equal(t, modeFast, v)

	_, err = n.NormalizeWithError("turbo")
	require.ErrorContains(t, err, "valid options: [fast safe]")
	require.False(t, n.IsValid("turbo"))
	require.True(t, n.IsValid("SAFE"))
	require.Equal(t, []string{"fast", "safe"}, n.ValidKeys())
}
