package partition_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/partition"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "image-*.bin")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func putMBREntry(sector []byte, offset int, bootable, partType byte, startLBA, numSectors uint32) {
	sector[offset] = bootable
	sector[offset+4] = partType
	putLE32(sector, offset+8, startLBA)
	putLE32(sector, offset+12, numSectors)
}

func putLE32(b []byte, offset int, v uint32) {
	b[offset] = byte(v)
	b[offset+1] = byte(v >> 8)
	b[offset+2] = byte(v >> 16)
	b[offset+3] = byte(v >> 24)
}

func newBlankMBRSector() []byte {
	sector := make([]byte, 512)
	sector[510] = 0x55
	sector[511] = 0xAA
	return sector
}

func TestCHSDecode(t *testing.T) {
	cylinder, head, sector := partition.CHS([3]byte{0x01, 0xC2, 0x03})
	require.Equal(t, uint8(1), head)
	require.Equal(t, uint8(2), sector)
	require.Equal(t, uint16(771), cylinder)
}

func TestParseMBRSinglePrimaryPartition(t *testing.T) {
	sector := newBlankMBRSector()
	putMBREntry(sector, 446, 0x80, 0x07, 2048, 204800)
	path := writeImage(t, sector)

	root, err := partition.ParseMBR(path)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	refs := root.Flatten()
	require.Len(t, refs, 1)
	require.Equal(t, uint64(2048), refs[0].StartingLBA)
	require.Equal(t, uint64(204800), refs[0].SizeSectors)
	require.Equal(t, uint8(0x07), refs[0].Kind.MBRCode)
}

// TestMBRBoundedRecursion exercises invariant 6: an extended partition
// whose EBR is all zeros ends the chain, because the scan of that EBR
// stops at its first empty entry (MBREntry.IsEmpty) and the extended
// node gets no children.
func TestMBRBoundedRecursion(t *testing.T) {
	primary := newBlankMBRSector()
	putMBREntry(primary, 446, 0x00, 0x05, 2048, 4096) // extended, EBR chain starts at LBA 2048
	path := writeImage(t, primary)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	ebr := newBlankMBRSector() // empty EBR: no further entries, recursion must stop here
	_, err = f.WriteAt(ebr, 2048*512)
	require.NoError(t, err)

	root, err := partition.ParseMBR(path)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.True(t, root.Children[0].IsExtended())
	require.Empty(t, root.Children[0].Children)
}

func TestMBRTypeNameKnownAndUnknown(t *testing.T) {
	require.Contains(t, partition.MBRTypeName(0x07), "NTFS")
	require.NotEmpty(t, partition.MBRTypeName(0xF9))
}
