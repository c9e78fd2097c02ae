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

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// apmEntrySize is the fixed size of a Driver Descriptor Map / Partition
// Map sector on an Apple-partitioned disk.
const apmEntrySize = 512

// apmMaxEntries bounds the scan to LBA 1..63, matching the invariant
// that APM enumeration never reads past LBA 63.
const apmMaxEntries = 63

// IsAPM reports whether the image's Driver Descriptor Map (LBA 0) carries
// the big-endian "ER" signature.
func IsAPM(path string) (bool, error) {
	s, err := bytestream.Open(path, 0, apmEntrySize)
	if err != nil {
		return false, err
	}
	defer s.Close()

	sig, err := s.ReadRaw(2)
	if err != nil {
		return false, err
	}
	return string(sig) == "ER", nil
}

// ApmEntry is one decoded Apple Partition Map entry (big-endian on disk).
type ApmEntry struct {
	StartingLBA   uint32
	SizeInSectors uint32
	Name          string
	Type          string
	Detail        ApmDetail
}

// ParseAPM enumerates LBA 1..63, reading one 512-byte Partition Map
// entry per sector, stopping at the first entry whose two-byte
// signature is not "PM".
func ParseAPM(path string) ([]ApmEntry, error) {
	var entries []ApmEntry
	for lba := uint64(1); lba <= apmMaxEntries; lba++ {
		entry, ok, err := parseApmSector(path, lba)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseApmSector(path string, lba uint64) (ApmEntry, bool, error) {
	s, err := bytestream.Open(path, lba, apmEntrySize)
	if err != nil {
		return ApmEntry{}, false, err
	}
	defer s.Close()

	sig, err := s.ReadRaw(2)
	if err != nil {
		return ApmEntry{}, false, err
	}
	if string(sig) != "PM" {
		return ApmEntry{}, false, nil
	}
	if _, err := s.ReadRaw(2); err != nil { // reserved
		return ApmEntry{}, false, err
	}

	numberOfPartitions, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	_ = numberOfPartitions
	startingLBA, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	sizeInSectors, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	nameBytes, err := s.ReadRaw(32)
	if err != nil {
		return ApmEntry{}, false, err
	}
	typeBytes, err := s.ReadRaw(32)
	if err != nil {
		return ApmEntry{}, false, err
	}
	if _, err := s.ReadRaw(8); err != nil { // starting_lba_of_data, size_in_sectors_of_data
		return ApmEntry{}, false, err
	}
	status, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	bootLBA, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	bootSize, err := bytestream.ReadBE[uint32](s)
	if err != nil {
		return ApmEntry{}, false, err
	}
	if _, err := s.ReadRaw(20); err != nil { // boot load/entry addresses, boot checksum
		return ApmEntry{}, false, err
	}
	processor, err := s.ReadRaw(16)
	if err != nil {
		return ApmEntry{}, false, err
	}
	var processorType [16]byte
	copy(processorType[:], processor)

	name := apmCString(nameBytes)
	typ := apmCString(typeBytes)

	return ApmEntry{
		StartingLBA:   startingLBA,
		SizeInSectors: sizeInSectors,
		Name:          name,
		Type:          typ,
		Detail: ApmDetail{
			PartitionStatus: status,
			BootCodeLBA:     bootLBA,
			BootCodeSize:    bootSize,
			ProcessorType:   processorType,
		},
	}, true, nil
}

// apmCString decodes an APM ASCII field, trimming at the first NUL and
// any trailing whitespace.
func apmCString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	for _, c := range b {
		if c > 0x7F {
			return strings.TrimSpace(string(b))
		}
	}
	return strings.TrimSpace(string(b))
}

// Ref converts an ApmEntry into the scheme-agnostic partition Ref model.
func (e ApmEntry) Ref() (Ref, error) {
	if e.SizeInSectors == 0 {
		return Ref{}, imgerr.New(imgerr.Integrity, "apm entry has zero size")
	}
	return Ref{
		StartingLBA: uint64(e.StartingLBA),
		EndingLBA:   uint64(e.StartingLBA) + uint64(e.SizeInSectors) - 1,
		SizeSectors: uint64(e.SizeInSectors),
		Kind: Kind{
			Scheme:  SchemeAPM,
			APMType: e.Type,
			Name:    e.Type,
		},
		Label: e.Name,
	}, nil
}
