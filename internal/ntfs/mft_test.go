package ntfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyFixupRestoresSectorTails(t *testing.T) {
	logical := buildFileRecord("test.txt", FromUnix(1_700_000_000))
	raw := onDisk(logical, 7)

	fixed, err := applyFixup(raw)
	require.NoError(t, err)
	// applyFixup leaves the update sequence array (USN plus saved tails)
	// as onDisk wrote it; every other byte, sector tails included, must
	// match the logical record.
	want := append([]byte(nil), logical...)
	usa := want[fixtureUSAOffset : fixtureUSAOffset+2*fixtureUSAEntries]
	copy(usa, raw[fixtureUSAOffset:fixtureUSAOffset+2*fixtureUSAEntries])
	require.Equal(t, want, fixed)
}

func TestApplyFixupDetectsTornSector(t *testing.T) {
	logical := buildFileRecord("test.txt", FromUnix(1_700_000_000))
	raw := onDisk(logical, 7)
	raw[1023] ^= 0xFF // corrupt the second sector's tail without updating the USA

	_, err := applyFixup(raw)
	require.Error(t, err)
}

func TestDecodeRecordLiveFile(t *testing.T) {
	created := FromUnix(1_700_000_000)
	logical := buildFileRecord("test.txt", created)

	record, err := decodeRecord(logical, 4096, 1, true)
	require.NoError(t, err)
	require.True(t, record.Header.IsLive())

	si, _, ok := record.StandardInformation()
	require.True(t, ok)
	require.Equal(t, created, si.Created)

	fn, _, ok := record.FileName()
	require.True(t, ok)
	require.Equal(t, "test.txt", fn.Name)
}

func TestDecodeRecordUnusedSlotHasNoAttributes(t *testing.T) {
	buf := buildMFTRecordHeader(false, 0, 0)

	record, err := decodeRecord(buf, 4096, 1, true)
	require.NoError(t, err)
	require.False(t, record.Header.IsLive())
	require.Empty(t, record.Attributes)
}

// TestWalkerVisitsBoundedSlots exercises invariant 7: the walker visits
// exactly ceil(file_allocation_size / mft_record_size) slots and stops,
// never reading past the MFT's own declared extent.
func TestWalkerVisitsBoundedSlots(t *testing.T) {
	path := buildSyntheticVolume(t, "test.txt", FromUnix(1_700_000_000))

	w, err := NewWalker(path, 0)
	require.NoError(t, err)
	defer w.Close()

	record, err := w.Next()
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, 1, record.Index)
	fn, _, ok := record.FileName()
	require.True(t, ok)
	require.Equal(t, "test.txt", fn.Name)

	record, err = w.Next()
	require.NoError(t, err)
	require.Nil(t, record) // extent exhausted: no further slots exist in this fixture
}
