package format_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/pkg/util/format"
)

func TestFormatBytesWholeUnits(t *testing.T) {
	require.Equal(t, "0B", format.FormatBytes(0))
	require.Equal(t, "512B", format.FormatBytes(512))
	require.Equal(t, "1KiB", format.FormatBytes(1024))
	require.Equal(t, "1MiB", format.FormatBytes(1<<20))
	require.Equal(t, "1GiB", format.FormatBytes(1<<30))
	require.Equal(t, "1TiB", format.FormatBytes(1<<40))
}

func TestFormatBytesFractionalUnits(t *testing.T) {
	require.Equal(t, "1.50KiB", format.FormatBytes(1536))
	require.Equal(t, "2.50MiB", format.FormatBytes(int64(2.5*(1<<20))))
}
