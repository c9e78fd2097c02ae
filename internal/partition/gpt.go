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

package partition

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/crc32check"
	"github.com/sscafiti/imgscope/internal/guid"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// gptCRCFieldOffset is the byte offset of the CRC32 field within the
// header, which must be zeroed before recomputing the header checksum.
const gptCRCFieldOffset = 16

// gptEntryNameUnits is the fixed UTF-16LE code-unit width of a GPT
// partition name field (72 bytes / 2).
const gptEntryNameUnits = 36

// GPTResult bundles the decoded header, its entries, and the outcome of
// both CRC32 checks the UEFI spec mandates.
type GPTResult struct {
	Header              GPTHeader
	Entries              []GPTEntry
	HeaderCRCValid       bool
	EntriesCRCValid      bool
	StoredEntriesCRC32   uint32
	ComputedEntriesCRC32 uint32
}

// ParseGPT reads the primary GPT header at LBA 1, validates both CRC32
// fields, and enumerates entries in on-disk order up to the first
// all-zero entry; entries after it are not read. A CRC
// mismatch is recorded on the result but does not abort enumeration, per
// the decoder's documented policy; the primary header is always used,
// the backup header is never consulted.
func ParseGPT(path string) (*GPTResult, error) {
	headerBytes, header, err := readGPTHeader(path)
	if err != nil {
		return nil, err
	}

	computedHeaderCRC := crc32check.HeaderChecksum(headerBytes[:header.HeaderSize], gptCRCFieldOffset)
	result := &GPTResult{
		Header:         header,
		HeaderCRCValid: computedHeaderCRC == header.CRC32Header,
	}

	entries, err := readGPTEntries(path, header)
	if err != nil {
		return nil, err
	}
	result.Entries = entries

	entriesBytesLen := uint64(header.NumberPartitionEntries) * uint64(header.SizeSinglePartitionEntry)
	entryBuf, err := readGPTEntryBytes(path, header.StartingLBAOfPartitionEntries, entriesBytesLen)
	if err != nil {
		return nil, err
	}
	result.ComputedEntriesCRC32 = crc32check.Checksum(entryBuf)
	result.StoredEntriesCRC32 = header.CRC32PartitionEntries
	result.EntriesCRCValid = result.ComputedEntriesCRC32 == result.StoredEntriesCRC32

	return result, nil
}

func readGPTHeader(path string) ([]byte, GPTHeader, error) {
	var h GPTHeader

	// Read generously; header_size is read back from the buffer and the
	// caller re-slices to the declared size before hashing.
	const maxHeaderSize = 512
	s, err := bytestream.Open(path, 1, maxHeaderSize)
	if err != nil {
		return nil, h, err
	}
	defer s.Close()

	sig, err := s.ReadRaw(8)
	if err != nil {
		return nil, h, err
	}
	copy(h.Signature[:], sig)
	if string(h.Signature[:]) != "EFI PART" {
		return nil, h, imgerr.New(imgerr.Signature, "GPT header signature mismatch: got %q", h.Signature)
	}

	if h.Revision, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}
	if h.HeaderSize, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}
	if h.CRC32Header, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}
	if _, err = bytestream.ReadLE[uint32](s); err != nil { // reserved
		return nil, h, err
	}
	if h.CurrentLBA, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, h, err
	}
	if h.BackupLBA, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, h, err
	}
	if h.FirstUsableLBA, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, h, err
	}
	if h.LastUsableLBA, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, h, err
	}
	diskGUIDBytes, err := s.ReadRaw(16)
	if err != nil {
		return nil, h, err
	}
	if h.DiskGUID, err = guid.Parse(diskGUIDBytes); err != nil {
		return nil, h, imgerr.Wrap(imgerr.Encoding, err, "disk guid")
	}
	if h.StartingLBAOfPartitionEntries, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, h, err
	}
	if h.NumberPartitionEntries, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}
	if h.SizeSinglePartitionEntry, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}
	if h.CRC32PartitionEntries, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, h, err
	}

	if h.HeaderSize < 92 || int(h.HeaderSize) > maxHeaderSize {
		return nil, h, imgerr.New(imgerr.Integrity, "implausible GPT header_size %d", h.HeaderSize)
	}

	headerBytes, err := s.ReadRawBytesFromFile(SectorSize, int(h.HeaderSize))
	if err != nil {
		return nil, h, err
	}
	return headerBytes, h, nil
}

func readGPTEntryBytes(path string, startingLBA, length uint64) ([]byte, error) {
	s, err := bytestream.Open(path, startingLBA, int(length))
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ReadRaw(int(length))
}

func readGPTEntries(path string, header GPTHeader) ([]GPTEntry, error) {
	entrySize := int(header.SizeSinglePartitionEntry)
	totalBytes := int(header.NumberPartitionEntries) * entrySize
	if totalBytes <= 0 {
		return nil, nil
	}

	s, err := bytestream.Open(path, header.StartingLBAOfPartitionEntries, totalBytes)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var entries []GPTEntry
	for i := uint32(0); i < header.NumberPartitionEntries; i++ {
		raw, err := s.ReadRaw(entrySize)
		if err != nil {
			return nil, err
		}
		entry, err := decodeGPTEntry(raw)
		if err != nil {
			return nil, err
		}
		if entry.IsEmpty() {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeGPTEntry(raw []byte) (GPTEntry, error) {
	var e GPTEntry
	if len(raw) < 128 {
		return e, imgerr.New(imgerr.Integrity, "GPT entry too short: %d bytes", len(raw))
	}

	typeGUID, err := guid.Parse(raw[0:16])
	if err != nil {
		return e, imgerr.Wrap(imgerr.Encoding, err, "partition type guid")
	}
	uniqueGUID, err := guid.Parse(raw[16:32])
	if err != nil {
		return e, imgerr.Wrap(imgerr.Encoding, err, "unique partition guid")
	}
	e.PartitionTypeGUID = typeGUID
	e.UniqueGUID = uniqueGUID
	e.StartingLBA = leUint64(raw[32:40])
	e.EndingLBA = leUint64(raw[40:48])
	e.Attributes = leUint64(raw[48:56])

	nameBytes := raw[56:128]
	name, err := decodeUTF16LEName(nameBytes, gptEntryNameUnits)
	if err != nil {
		return e, imgerr.Wrap(imgerr.Encoding, err, "partition name")
	}
	e.Name = name
	return e, nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// decodeUTF16LEName decodes maxUnits little-endian UTF-16 code units,
// stopping at the first NUL code unit to avoid rendering trailing
// padding glyphs, and surfaces malformed surrogate sequences as errors.
func decodeUTF16LEName(b []byte, maxUnits int) (string, error) {
	units := make([]uint16, 0, maxUnits)
	for i := 0; i < maxUnits && i*2+1 < len(b); i++ {
		u := uint16(b[i*2]) | uint16(b[i*2+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	runes := utf16.Decode(units)
	var sb strings.Builder
	for _, r := range runes {
		if r == utf8.RuneError {
			return "", imgerr.New(imgerr.Encoding, "invalid utf16 sequence in name")
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// Ref converts a GPTEntry into the scheme-agnostic partition Ref model.
func (e GPTEntry) Ref() Ref {
	canonical := e.PartitionTypeGUID.String()
	return Ref{
		StartingLBA: e.StartingLBA,
		EndingLBA:   e.EndingLBA,
		SizeSectors: e.EndingLBA - e.StartingLBA + 1,
		Kind: Kind{
			Scheme:  SchemeGPT,
			GPTGUID: e.PartitionTypeGUID,
			Name:    GPTTypeName(canonical),
		},
		Label: e.Name,
	}
}
