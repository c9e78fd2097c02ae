package ntfs

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// The fixtures in this file hand-assemble a minimal two-record NTFS
// volume: a Partition Boot Record, the $MFT's own file record (index 0,
// carrying only a $DATA attribute whose allocation size bounds the
// walk), and one ordinary file record (index 1, carrying
// $STANDARD_INFORMATION and $FILE_NAME for "test.txt"). Every geometry
// constant below (sector size, cluster size, record size) mirrors what
// ParsePBR would derive from the BPB bytes written here.

const (
	fixtureBytesPerSector    = 512
	fixtureSectorsPerCluster = 8
	fixtureMFTLCN            = 1
	fixtureMFTRecordSize     = 1024
	fixtureUSAOffset         = 42
	fixtureUSAEntries        = 3 // 1 USN slot + 2 sector-tail slots for a 2-sector record
	fixtureOffsetFirstAttr   = 56
)

func putLE16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:off+2], v) }
func putLE32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:off+4], v) }
func putLE64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:off+8], v) }

func writeUTF16LE(b []byte, off int, s string) {
	for i, r := range s {
		putLE16(b, off+i*2, uint16(r))
	}
}

// buildMFTRecordHeader writes the 42-byte MftHeader prefix this package's
// decodeRecord reads, plus a zeroed USA-array region sized for a
// fixtureMFTRecordSize-byte (2-sector) record.
func buildMFTRecordHeader(live bool, hardLinkCount uint16, baseFileRecord uint64) []byte {
	buf := make([]byte, fixtureMFTRecordSize)
	if live {
		copy(buf[0:4], "FILE")
	} else {
		copy(buf[0:4], "\x00\x00\x00\x00")
	}
	putLE16(buf, 4, fixtureUSAOffset)
	putLE16(buf, 6, fixtureUSAEntries)
	// LogFileSequenceNr (8) left zero
	buf[16] = 1 // UseCount
	buf[17] = 0 // DeletionCount
	putLE16(buf, 18, hardLinkCount)
	putLE16(buf, 20, fixtureOffsetFirstAttr)
	putLE16(buf, 22, 0x0001) // Flags: in-use
	putLE32(buf, 24, fixtureMFTRecordSize)
	putLE32(buf, 28, fixtureMFTRecordSize)
	putLE64(buf, 32, baseFileRecord)
	putLE16(buf, 40, 2) // NextAttributeID
	return buf
}

func putAttrCommon(buf []byte, off int, attrType, length uint32, nonResident bool, attrID uint16) {
	putLE32(buf, off, attrType)
	putLE32(buf, off+4, length)
	if nonResident {
		buf[off+8] = 1
	} else {
		buf[off+8] = 0
	}
	buf[off+9] = 0 // name_length
	putLE16(buf, off+10, 0)
	putLE16(buf, off+12, 0) // flags
	putLE16(buf, off+14, attrID)
}

func putResidentTail(buf []byte, off int, valueLength uint32, valueOffset uint16) {
	putLE32(buf, off, valueLength)
	putLE16(buf, off+4, valueOffset)
	buf[off+6] = 0 // indexed
	buf[off+7] = 0 // padding
}

func putNonResidentTail(buf []byte, off int, fileAllocationSize uint64) {
	putLE64(buf, off, 0)                  // starting_vcn
	putLE64(buf, off+8, 0)                // ending_vcn
	putLE16(buf, off+16, 0)                // data_runs_offset (unused by the fixture)
	putLE16(buf, off+18, 0)                // compression_unit
	// 4 bytes reserved padding at off+20
	putLE64(buf, off+24, fileAllocationSize)
	putLE64(buf, off+32, fileAllocationSize) // file_real_size
	putLE64(buf, off+40, fileAllocationSize) // initial_stream_size
}

func putTimestamps(buf []byte, off int, t Timestamp) {
	for i := 0; i < 4; i++ {
		putLE64(buf, off+8*i, uint64(t))
	}
}

// buildMFTSelfRecord builds the $MFT's own file record (index 0): a
// single non-resident $DATA attribute whose file_allocation_size is the
// byte extent the walker treats as the whole MFT.
func buildMFTSelfRecord(fileAllocationSize uint64) []byte {
	buf := buildMFTRecordHeader(true, 1, 0)

	off := fixtureOffsetFirstAttr
	const headerLen = 16 + 48 // common + non-resident tail
	const dataRunLen = 3      // one nibble-prefixed fragment: header + 1 length byte + 1 offset byte
	attrLen := uint32(headerLen + dataRunLen)

	putAttrCommon(buf, off, AttrData, attrLen, true, 0)
	putNonResidentTail(buf, off+16, fileAllocationSize)

	runOff := off + headerLen
	buf[runOff] = 0x11  // length field 1 byte, offset field 1 byte
	buf[runOff+1] = 0x08 // length = 8 clusters
	buf[runOff+2] = 0x01 // offset = +1 cluster

	terminatorOff := off + int(attrLen)
	putLE32(buf, terminatorOff, 0xFFFFFFFF)

	return buf
}

// buildFileRecord builds an ordinary file record carrying
// $STANDARD_INFORMATION and $FILE_NAME for name, both stamped with
// created.
func buildFileRecord(name string, created Timestamp) []byte {
	buf := buildMFTRecordHeader(true, 1, 0)

	siOff := fixtureOffsetFirstAttr
	const siHeaderLen = 16 + 8
	const siBodyLen = 48
	siLen := uint32(siHeaderLen + siBodyLen)

	putAttrCommon(buf, siOff, AttrStandardInformation, siLen, false, 0)
	putResidentTail(buf, siOff+16, siBodyLen, uint16(siHeaderLen))
	siBodyOff := siOff + siHeaderLen
	putTimestamps(buf, siBodyOff, created)
	// permission_flags, max_versions, version_number left zero

	fnOff := siOff + int(siLen)
	const fnHeaderLen = 16 + 8
	nameBytes := len(name) * 2
	fnBodyLen := 8 + 32 + 8 + 8 + 4 + 4 + 1 + 1 + nameBytes
	fnLen := uint32(fnHeaderLen + fnBodyLen)

	putAttrCommon(buf, fnOff, AttrFileName, fnLen, false, 1)
	putResidentTail(buf, fnOff+16, uint32(fnBodyLen), uint16(fnHeaderLen))
	fnBodyOff := fnOff + fnHeaderLen
	putLE64(buf, fnBodyOff, 5) // parent_dir_ref, arbitrary non-zero
	putTimestamps(buf, fnBodyOff+8, created)
	putLE64(buf, fnBodyOff+40, 0) // allocated_size
	putLE64(buf, fnBodyOff+48, 0) // real_size
	putLE32(buf, fnBodyOff+56, 0) // flags
	putLE32(buf, fnBodyOff+60, 0) // ea_or_reparse
	buf[fnBodyOff+64] = byte(len(name))
	buf[fnBodyOff+65] = 1 // namespace: Win32
	writeUTF16LE(buf, fnBodyOff+66, name)

	terminatorOff := fnOff + int(fnLen)
	putLE32(buf, terminatorOff, 0xFFFFFFFF)

	return buf
}

// onDisk applies this package's own fixup-writing logic to a logical
// (post-fixup) record buffer, producing the protected bytes a real NTFS
// volume would carry on disk: the update sequence number and the two
// sector tails it replaces.
func onDisk(logical []byte, usn uint16) []byte {
	return reapplyFixup(logical, usn)
}

// buildPBRSector assembles the 512-byte boot sector ParsePBR decodes,
// describing a volume with 512-byte sectors, 8 sectors/cluster (4096-byte
// clusters), $MFT at cluster 1, and mft_size_code -10 (1024-byte records).
func buildPBRSector() []byte {
	sector := make([]byte, fixtureBytesPerSector)
	copy(sector[3:11], "NTFS    ")
	putLE16(sector, 11, fixtureBytesPerSector)
	sector[13] = fixtureSectorsPerCluster
	putLE64(sector, 40, 20000) // sectors in volume, unused by the decoder beyond a read
	putLE64(sector, 48, fixtureMFTLCN)
	putLE64(sector, 56, 0) // backup mft lcn, unused
	sector[64] = 0xF6      // mft_size_code = -10 -> 1 << 10 = 1024-byte records
	sector[72] = 0x42      // serial number, arbitrary
	sector[510] = 0x55
	sector[511] = 0xAA
	return sector
}

// buildSyntheticVolume assembles a whole disk image: the PBR at LBA 0,
// the $MFT's own record at its derived byte offset, and one ordinary
// file record immediately after it. It returns the path to the image.
func buildSyntheticVolume(t *testing.T, fileName string, created Timestamp) string {
	t.Helper()

	const mftByteOffset = fixtureMFTLCN * fixtureSectorsPerCluster * fixtureBytesPerSector // 4096
	const fileAllocationSize = 2 * fixtureMFTRecordSize                                    // bounds the walk to 2 slots

	mftRecord := onDisk(buildMFTSelfRecord(fileAllocationSize), 1)
	fileRecord := onDisk(buildFileRecord(fileName, created), 1)

	image := make([]byte, mftByteOffset+fileAllocationSize)
	copy(image[0:fixtureBytesPerSector], buildPBRSector())
	copy(image[mftByteOffset:], mftRecord)
	copy(image[mftByteOffset+fixtureMFTRecordSize:], fileRecord)

	f, err := os.CreateTemp(t.TempDir(), "ntfs-*.img")
	require.NoError(t, err)
	_, err = f.Write(image)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
