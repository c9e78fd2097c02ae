package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/ntfs"
	"github.com/sscafiti/imgscope/internal/partition"
	"github.com/sscafiti/imgscope/internal/report"
)

func TestWritePartitionTable(t *testing.T) {
	result := &partition.Result{
		Scheme: partition.SchemeMBR,
		Partitions: []partition.Ref{
			{StartingLBA: 2048, EndingLBA: 206847, SizeSectors: 204800, Kind: partition.Kind{Name: "NTFS"}, Label: "Windows"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WritePartitionTable(&buf, result))

	out := buf.String()
	require.Contains(t, out, "MBR")
	require.Contains(t, out, "NTFS")
	require.Contains(t, out, "Windows")
	require.Contains(t, out, "100MiB") // 204800 sectors * 512 bytes = 100MiB exactly
}

func recordWithFileName(index int, name string, size uint64, created ntfs.Timestamp) ntfs.Record {
	return ntfs.Record{
		Index: index,
		Attributes: []ntfs.Attribute{
			{Header: ntfs.AttributeHeader{Common: ntfs.CommonAttributeHeader{AttributeType: ntfs.AttrStandardInformation}}, Body: ntfs.StandardInformation{Created: created, Modified: created, MFTModified: created, Accessed: created}},
			{Header: ntfs.AttributeHeader{Common: ntfs.CommonAttributeHeader{AttributeType: ntfs.AttrFileName}}, Body: ntfs.FileName{Name: name, RealSize: size}},
		},
	}
}

func TestWriteMFTTable(t *testing.T) {
	records := []ntfs.Record{recordWithFileName(1, "test.txt", 4096, ntfs.FromUnix(1_700_000_000))}

	var buf bytes.Buffer
	require.NoError(t, report.WriteMFTTable(&buf, records))

	out := buf.String()
	require.Contains(t, out, "test.txt")
	require.Contains(t, out, "4KiB")
}

func TestDumpMFTCSV(t *testing.T) {
	records := []ntfs.Record{recordWithFileName(1, "test.txt", 4096, ntfs.FromUnix(1_700_000_000))}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, report.DumpMFTCSV(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "size")
	require.Contains(t, lines[1], "test.txt")
	require.Contains(t, lines[1], "4096") // raw byte count, not human-formatted
}

func TestWriteCHSTable(t *testing.T) {
	root := &partition.MbrNode{
		Children: []*partition.MbrNode{
			{
				Entry: &partition.MBREntry{
					Bootable:      0x80,
					StartCHS:      [3]byte{0x01, 0xC2, 0x03},
					PartitionType: 0x07,
					EndCHS:        [3]byte{0x02, 0x03, 0x04},
					StartingLBA:   2048,
					NumSectors:    204800,
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCHSTable(&buf, root))
	require.Contains(t, buf.String(), "NTFS")
}
