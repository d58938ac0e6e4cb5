package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 57, 58, 59, 1000, 123456789, 1<<40 + 7} {
		encoded := EncodeNumber(n)
		decoded, err := DecodeNumber(encoded)
		require.NoError(t, err)
		require.Equal(t, n, decoded, "round trip for %d via %q", n, encoded)
	}
}

func TestEncodeNumberKnownValues(t *testing.T) {
	require.Equal(t, "1", EncodeNumber(0))
	require.Equal(t, "2", EncodeNumber(1))
	// 58 rolls over to two digits.
	require.Equal(t, "21", EncodeNumber(58))
}

func TestEncodeNumberExcludesConfusables(t *testing.T) {
	for n := uint64(0); n < 5000; n++ {
		encoded := EncodeNumber(n)
		require.NotContains(t, encoded, "0")
		require.NotContains(t, encoded, "O")
		require.NotContains(t, encoded, "I")
		require.NotContains(t, encoded, "l")
	}
}

func TestDecodeNumberRejectsInvalidCharacters(t *testing.T) {
	_, err := DecodeNumber("ab0cd")
	require.Error(t, err)
	_, err = DecodeNumber("O")
	require.Error(t, err)
}

func TestRandomID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := RandomID(10)
		require.NoError(t, err)
		require.Len(t, id, 10)
		for _, c := range id {
			require.True(t, strings.ContainsRune(randomAlphabet, c), "unexpected character %q in %q", c, id)
		}
		require.False(t, seen[id], "duplicate random id %q", id)
		seen[id] = true
	}
}

func TestRandomIDLengthCap(t *testing.T) {
	_, err := RandomID(13)
	require.Error(t, err)
}
