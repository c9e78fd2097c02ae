// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package ntfs

import (
	"strings"

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// SectorSize is the fixed atomic I/O unit of the images this tool reads.
const SectorSize = 512

// pbrSize is the 84-byte span of the BIOS Parameter Block this decoder
// captures, out of the 512-byte boot sector.
const pbrSize = 84

// Bpb is the decoded BIOS Parameter Block of an NTFS Partition Boot Record.
type Bpb struct {
	OEMID              string
	BytesPerSector     uint16
	SectorsPerCluster  uint8
	MFTLCN             uint64
	BackupMFTLCN       uint64
	MFTSizeCode        int8
	SerialNumber       uint64
}

// PBR is the parsed NTFS Partition Boot Record, plus the MFT location
// derived from it.
type PBR struct {
	Bpb            Bpb
	MFTByteOffset  uint64
	MFTRecordSize  uint32
}

// ParsePBR parses the BPB at the partition's starting LBA, validates the
// boot sector signature, and derives the MFT's byte offset and record
// size.
func ParsePBR(path string, partitionStartingLBA uint64) (*PBR, error) {
	s, err := bytestream.Open(path, partitionStartingLBA, SectorSize)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if _, err := s.ReadRaw(3); err != nil { // jump instruction
		return nil, err
	}
	oemBytes, err := s.ReadRaw(8)
	if err != nil {
		return nil, err
	}
	oemID := strings.TrimSpace(string(oemBytes))

	bytesPerSector, err := bytestream.ReadLE[uint16](s)
	if err != nil {
		return nil, err
	}
	sectorsPerCluster, err := bytestream.ReadLE[uint8](s)
	if err != nil {
		return nil, err
	}
	if _, err := s.ReadRaw(7); err != nil { // error-marking space
		return nil, err
	}
	if _, err := s.ReadRaw(1); err != nil { // device type (unused by this decoder)
		return nil, err
	}
	if _, err := s.ReadRaw(2); err != nil { // error-marking space
		return nil, err
	}
	if _, err := s.ReadRaw(8); err != nil { // unused
		return nil, err
	}
	if _, err := s.ReadRaw(4); err != nil { // error-marking space
		return nil, err
	}
	if _, err := s.ReadRaw(4); err != nil { // unused
		return nil, err
	}
	if _, err := bytestream.ReadLE[uint64](s); err != nil { // number of sectors in volume
		return nil, err
	}
	mftLCN, err := bytestream.ReadLE[uint64](s)
	if err != nil {
		return nil, err
	}
	backupMFTLCN, err := bytestream.ReadLE[uint64](s)
	if err != nil {
		return nil, err
	}
	mftSizeRaw, err := bytestream.ReadLE[uint8](s)
	if err != nil {
		return nil, err
	}
	mftSizeCode := int8(mftSizeRaw)
	if _, err := s.ReadRaw(3); err != nil { // unused
		return nil, err
	}
	if _, err := s.ReadRaw(1); err != nil { // clusters per index buffer (unused by this decoder)
		return nil, err
	}
	if _, err := s.ReadRaw(3); err != nil { // unused
		return nil, err
	}
	serialBytes, err := s.ReadRaw(8)
	if err != nil {
		return nil, err
	}
	if _, err := s.ReadRaw(4); err != nil { // unused
		return nil, err
	}

	var serial uint64
	for i := 7; i >= 0; i-- {
		serial = serial<<8 | uint64(serialBytes[i])
	}

	if oemID != "NTFS" {
		return nil, imgerr.New(imgerr.Signature, "unsupported OEM ID %q: cannot parse $MFT of a non-NTFS partition", oemID)
	}

	sig, err := s.ReadRawBytesFromFile(partitionStartingLBA*SectorSize+510, 2)
	if err != nil {
		return nil, err
	}
	if sig[0] != 0x55 || sig[1] != 0xAA {
		return nil, imgerr.New(imgerr.Signature, "boot sector missing 0x55AA signature")
	}

	bpb := Bpb{
		OEMID:             oemID,
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: sectorsPerCluster,
		MFTLCN:            mftLCN,
		BackupMFTLCN:      backupMFTLCN,
		MFTSizeCode:       mftSizeCode,
		SerialNumber:      serial,
	}

	mftByteOffset := partitionStartingLBA*SectorSize + mftLCN*uint64(sectorsPerCluster)*SectorSize

	var mftRecordSize uint32
	if mftSizeCode < 0 {
		mftRecordSize = 1 << uint(-int(mftSizeCode))
	} else {
		if sectorsPerCluster == 0 {
			return nil, imgerr.New(imgerr.Unsupported, "mft_size_code positive branch requires nonzero sectors_per_cluster")
		}
		mftRecordSize = uint32(mftSizeCode) * uint32(sectorsPerCluster) * uint32(bytesPerSector)
	}

	return &PBR{
		Bpb:           bpb,
		MFTByteOffset: mftByteOffset,
		MFTRecordSize: mftRecordSize,
	}, nil
}
