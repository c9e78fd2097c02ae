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

// Package partition recognizes and enumerates the three partitioning
// schemes this tool understands: Apple Partition Map, MBR (with chained
// Extended Boot Records), and GUID Partition Table.
package partition

import "github.com/sscafiti/imgscope/internal/guid"

// SectorSize is the fixed atomic I/O unit of the images this tool reads.
const SectorSize = 512

// Kind tags which scheme produced a PartitionRef and carries the
// scheme-specific type identifier alongside a human-readable name.
type Kind struct {
	Scheme Scheme
	// MBRCode is valid when Scheme == MBR.
	MBRCode uint8
	// GPTGUID is valid when Scheme == GPT.
	GPTGUID guid.GUID
	// APMType is valid when Scheme == APM (e.g. "Apple_HFS").
	APMType string
	// Name is the resolved human-readable type name.
	Name string
}

// Scheme identifies a partitioning scheme.
type Scheme int

const (
	SchemeMBR Scheme = iota
	SchemeGPT
	SchemeAPM
)

func (s Scheme) String() string {
	switch s {
	case SchemeMBR:
		return "MBR"
	case SchemeGPT:
		return "GPT"
	case SchemeAPM:
		return "APM"
	default:
		return "unknown"
	}
}

// Ref describes a single partition regardless of which scheme produced it.
type Ref struct {
	StartingLBA uint64
	EndingLBA   uint64
	SizeSectors uint64
	Kind        Kind
	Label       string
}

// MBREntry is one decoded 16-byte MBR/EBR partition table entry.
type MBREntry struct {
	Bootable      uint8
	StartCHS      [3]byte
	PartitionType uint8
	EndCHS        [3]byte
	StartingLBA   uint32
	NumSectors    uint32
}

// IsEmpty reports whether every field of the entry is zero.
func (e MBREntry) IsEmpty() bool {
	return e.Bootable == 0 && e.StartCHS == [3]byte{} && e.PartitionType == 0 &&
		e.EndCHS == [3]byte{} && e.StartingLBA == 0 && e.NumSectors == 0
}

// IsExtended reports whether the entry's type marks it as an Extended
// (0x05) or Windows-Extended-LBA (0x0F) partition.
func (e MBREntry) IsExtended() bool {
	return e.PartitionType == 0x05 || e.PartitionType == 0x0F
}

// CHS decodes a 3-byte CHS field into (cylinder, head, sector).
func CHS(b [3]byte) (cylinder uint16, head uint8, sector uint8) {
	head = b[0]
	sector = b[1] & 0x3F
	cylinder = (uint16(b[1]&0xC0) << 2) | uint16(b[2])
	return
}

// GPTPartitionMarker is the MBR partition_type byte a protective MBR
// uses to signal that a GPT follows.
const GPTPartitionMarker uint8 = 0xEE

// MbrNode is one node in the tree the MBR/EBR decoder produces: the root
// has no Entry and 0-4 Children; an extended node has at most one data
// child and at most one further-extended child, forming the EBR chain.
type MbrNode struct {
	Entry              *MBREntry
	ImageOffsetSectors  uint64
	Children            []*MbrNode
}

// IsExtended reports whether this node's own entry is an extended
// partition (false for the synthetic root, which has no entry).
func (n *MbrNode) IsExtended() bool {
	return n.Entry != nil && n.Entry.IsExtended()
}

// ContainsGPTMarker reports whether any direct child of this node is a
// non-extended entry of type 0xEE (protective MBR signal for GPT).
func (n *MbrNode) ContainsGPTMarker() bool {
	for _, c := range n.Children {
		if c.Entry != nil && c.Entry.PartitionType == GPTPartitionMarker {
			return true
		}
	}
	return false
}

// Flatten walks the tree in on-disk order and returns one Ref per data
// partition (extended/EBR container nodes are traversed but not emitted).
func (n *MbrNode) Flatten() []Ref {
	var out []Ref
	var walk func(*MbrNode)
	walk = func(node *MbrNode) {
		if node.Entry != nil && !node.Entry.IsExtended() {
			e := node.Entry
			out = append(out, Ref{
				StartingLBA: node.ImageOffsetSectors + uint64(e.StartingLBA),
				EndingLBA:   node.ImageOffsetSectors + uint64(e.StartingLBA) + uint64(e.NumSectors) - 1,
				SizeSectors: uint64(e.NumSectors),
				Kind: Kind{
					Scheme:  SchemeMBR,
					MBRCode: e.PartitionType,
					Name:    MBRTypeName(e.PartitionType),
				},
			})
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// GPTHeader is the parsed, byte-order-resolved form of the 92-byte GPT
// header at LBA 1.
type GPTHeader struct {
	Signature                      [8]byte
	Revision                       uint32
	HeaderSize                     uint32
	CRC32Header                    uint32
	CurrentLBA                     uint64
	BackupLBA                      uint64
	FirstUsableLBA                 uint64
	LastUsableLBA                  uint64
	DiskGUID                       guid.GUID
	StartingLBAOfPartitionEntries  uint64
	NumberPartitionEntries         uint32
	SizeSinglePartitionEntry       uint32
	CRC32PartitionEntries          uint32
}

// GPTEntry is one decoded 128-byte (or SizeSinglePartitionEntry-byte) entry.
type GPTEntry struct {
	PartitionTypeGUID guid.GUID
	UniqueGUID        guid.GUID
	StartingLBA       uint64
	EndingLBA         uint64
	Attributes        uint64
	Name              string
}

// IsEmpty reports whether every byte backing the entry is zero, i.e.
// both GUIDs, both LBAs, the attribute bitmask, and the name are all zero.
func (e GPTEntry) IsEmpty() bool {
	return e.PartitionTypeGUID.IsZero() && e.UniqueGUID.IsZero() &&
		e.StartingLBA == 0 && e.EndingLBA == 0 && e.Attributes == 0 && e.Name == ""
}

// ApmDetail carries the APM fields a scheme-neutral Ref collapses away:
// status bitmask, boot-code extent, and processor type.
type ApmDetail struct {
	PartitionStatus  uint32
	BootCodeLBA      uint32
	BootCodeSize     uint32
	ProcessorType    [16]byte
}
