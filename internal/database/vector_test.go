package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVectorText(t *testing.T) {
	floats, err := ParseVector("[1.5,-2.0,0.25]")
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, -2.0, 0.25}, floats)
}

func TestParseVectorBytes(t *testing.T) {
	floats, err := ParseVector([]byte(" [0.1, 0.2] "))
	require.NoError(t, err)
	require.Equal(t, []float64{0.1, 0.2}, floats)
}

func TestParseVectorNil(t *testing.T) {
	floats, err := ParseVector(nil)
	require.NoError(t, err)
	require.Nil(t, floats)
}

func TestParseVectorEmpty(t *testing.T) {
	floats, err := ParseVector("[]")
	require.NoError(t, err)
	require.Empty(t, floats)
}

func TestParseVectorNative(t *testing.T) {
	floats, err := ParseVector([]float32{1, 2})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, floats)

	floats, err = ParseVector([]float64{3, 4})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4}, floats)

	floats, err = ParseVector([]any{float64(5), float64(6)})
	require.NoError(t, err)
	require.Equal(t, []float64{5, 6}, floats)
}

func TestParseVectorMalformed(t *testing.T) {
	_, err := ParseVector("[1.0,oops,3.0]")
	require.Error(t, err)

	_, err = ParseVector("1.0,2.0")
	require.Error(t, err)

	_, err = ParseVector(42)
	require.Error(t, err)
}

func TestFormatVectorRoundTrip(t *testing.T) {
	in := []float64{0.5, -1.25, 3}
	out, err := ParseVector(FormatVector(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestSanitizeURL(t *testing.T) {
	in := "postgres://u:p@host/db?sslmode=require&channel_binding=require"
	out := SanitizeURL(in)
	require.NotContains(t, out, "channel_binding")
	require.Contains(t, out, "sslmode=require")

	// URLs without the parameter pass through untouched.
	plain := "postgres://u:p@host/db?sslmode=require"
	require.Equal(t, plain, SanitizeURL(plain))
}
