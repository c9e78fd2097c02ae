package dfxml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/imgscope/internal/ntfs"
	"github.com/sscafiti/imgscope/pkg/dfxml"
)

func TestBuildDocumentSkipsRecordsWithoutFileName(t *testing.T) {
	records := []ntfs.Record{
		{Index: 5}, // no attributes decoded: must be skipped
	}

	doc := dfxml.BuildDocument("image.dd", 512, 2048, "1.2.3", records)
	require.Empty(t, doc.FileObjects)
	require.Equal(t, "image.dd", doc.Source.ImageFilename)
	require.Equal(t, 512, doc.Source.SectorSize)
	require.Equal(t, uint64(2048), doc.Source.PartitionLBA)
	require.Equal(t, "1.2.3", doc.Creator.Version)
}

func fileNameRecord(name string, created ntfs.Timestamp) ntfs.Record {
	return ntfs.Record{
		Index:      1,
		ByteOffset: 5120,
		Header:     ntfs.MftHeader{Signature: [4]byte{'F', 'I', 'L', 'E'}},
		Attributes: []ntfs.Attribute{
			{
				Header: ntfs.AttributeHeader{Common: ntfs.CommonAttributeHeader{AttributeType: ntfs.AttrStandardInformation}},
				Body: ntfs.StandardInformation{
					Created:     created,
					Modified:    created,
					MFTModified: created,
					Accessed:    created,
				},
			},
			{
				Header: ntfs.AttributeHeader{Common: ntfs.CommonAttributeHeader{AttributeType: ntfs.AttrFileName}},
				Body: ntfs.FileName{
					Name:     name,
					RealSize: 4096,
				},
			},
		},
	}
}

func TestBuildDocumentPopulatesFileObject(t *testing.T) {
	created := ntfs.FromUnix(1_700_000_000)
	doc := dfxml.BuildDocument("image.dd", 512, 0, "dev", []ntfs.Record{fileNameRecord("test.txt", created)})

	require.Len(t, doc.FileObjects, 1)
	obj := doc.FileObjects[0]
	require.Equal(t, "test.txt", obj.Filename)
	require.Equal(t, uint64(4096), obj.FileSize)
	require.Equal(t, "2023-11-14T22:13:20Z", obj.Created)
	require.Len(t, obj.ByteRuns.Runs, 1)
	require.Equal(t, uint64(5120), obj.ByteRuns.Runs[0].ImgOffset)
}

func TestWriteProducesWellFormedXMLDeclaration(t *testing.T) {
	created := ntfs.FromUnix(1_700_000_000)
	doc := dfxml.BuildDocument("image.dd", 512, 0, "dev", []ntfs.Record{fileNameRecord("test.txt", created)})

	var buf bytes.Buffer
	require.NoError(t, dfxml.Write(&buf, doc))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, out, "<dfxml")
	require.Contains(t, out, doc.Metadata.Xmlns)
	require.Contains(t, out, "test.txt")
}
