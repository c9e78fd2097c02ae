package guid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/guid"
)

func TestParseAppleGUID(t *testing.T) {
	raw := []byte{0x28, 0x73, 0x2a, 0xc1, 0x1f, 0xf8, 0xd2, 0x11, 0xba, 0x4b, 0x00, 0xa0, 0xc9, 0x3e, 0xc9, 0x3b}

	g, err := guid.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "C12A7328-F81F-11D2-BA4B-00A0C93EC93B", g.String())
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := guid.Parse(make([]byte, 15))
	require.Error(t, err)
}

func TestFromStringInverseOfString(t *testing.T) {
	raw := []byte{0x28, 0x73, 0x2a, 0xc1, 0x1f, 0xf8, 0xd2, 0x11, 0xba, 0x4b, 0x00, 0xa0, 0xc9, 0x3e, 0xc9, 0x3b}
	g, err := guid.Parse(raw)
	require.NoError(t, err)

	back, err := guid.FromString(g.String())
	require.NoError(t, err)
	require.Equal(t, g, back)
}

func TestRoundTripEveryByteSequence(t *testing.T) {
	seeds := [][]byte{
		make([]byte, 16),
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10},
	}
	for _, raw := range seeds {
		g, err := guid.Parse(raw)
		require.NoError(t, err)

		back, err := guid.FromString(g.String())
		require.NoError(t, err)

		reparsed, err := guid.Parse(back[:])
		require.NoError(t, err)
		require.Equal(t, g, reparsed)
	}
}

func TestIsZero(t *testing.T) {
	zero, err := guid.Parse(make([]byte, 16))
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	nonZero, err := guid.Parse([]byte{0x28, 0x73, 0x2a, 0xc1, 0x1f, 0xf8, 0xd2, 0x11, 0xba, 0x4b, 0x00, 0xa0, 0xc9, 0x3e, 0xc9, 0x3b})
	require.NoError(t, err)
	require.False(t, nonZero.IsZero())
}
