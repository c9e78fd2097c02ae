package bytestream_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/bytestream"
)

func writeTempImage(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "image-*.bin")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestReadLEAndReadBE(t *testing.T) {
	data := make([]byte, 512)
	data[0], data[1], data[2], data[3] = 0x01, 0x00, 0x00, 0x00
	path := writeTempImage(t, data)

	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	v, err := bytestream.ReadLE[uint32](s)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
}

func TestPeekDoesNotAdvanceCursor(t *testing.T) {
	data := make([]byte, 512)
	data[0] = 0x2A
	path := writeTempImage(t, data)

	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	before := s.CurrentByteOffset()
	v, err := bytestream.PeekLE[uint8](s)
	require.NoError(t, err)
	require.Equal(t, uint8(0x2A), v)
	require.Equal(t, before, s.CurrentByteOffset())
}

// TestCursorNeutralityOfRawFileReads exercises invariant 4: every
// ReadRaw*FromFile call must leave the window's cursor exactly where it
// found it, since these reads go straight to the backing file via ReadAt.
func TestCursorNeutralityOfRawFileReads(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	path := writeTempImage(t, data)

	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadRaw(10)
	require.NoError(t, err)
	cursorBefore := s.CurrentByteOffset()

	_, err = s.ReadRawBytesFromFile(2048, 128)
	require.NoError(t, err)
	require.Equal(t, cursorBefore, s.CurrentByteOffset())

	_, err = s.ReadRawSectorsFromFile(3, 1)
	require.NoError(t, err)
	require.Equal(t, cursorBefore, s.CurrentByteOffset())
}

func TestSeekWithinWindowRejectsOutOfBounds(t *testing.T) {
	data := make([]byte, 512)
	path := writeTempImage(t, data)

	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SeekWithinWindow(100))
	require.Error(t, s.SeekWithinWindow(10000))
}

func TestReseekMovesWindowAndPreservesIntraSectorOffset(t *testing.T) {
	data := make([]byte, 2048)
	data[1024] = 0x99
	path := writeTempImage(t, data)

	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Reseek(1024))
	v, err := bytestream.PeekLE[uint8](s)
	require.NoError(t, err)
	require.Equal(t, uint8(0x99), v)
}

func TestNewBufferReportsOriginOffset(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	s := bytestream.NewBuffer(buf, 1024)
	require.Equal(t, uint64(1024), s.CurrentByteOffset())

	v, err := bytestream.ReadLE[uint16](s)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0201), v)
	require.Equal(t, uint64(1026), s.CurrentByteOffset())
}

func TestShortReadIsAnError(t *testing.T) {
	path := writeTempImage(t, make([]byte, 512))
	s, err := bytestream.Open(path, 0, 512)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SkipBytes(510))
	_, err = bytestream.ReadLE[uint32](s)
	require.Error(t, err)
}
