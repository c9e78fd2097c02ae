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

// Package ntfs decodes an NTFS volume down to individual Master File
// Table records: the Partition Boot Record, the MFT's own data extent,
// the per-record attribute stream, and the two attributes (0x10, 0x30)
// that carry a file's timestamps, plus the first fragment of a file's
// $DATA run (0x80).
package ntfs

// AttrType names the MFT attribute types this decoder recognizes.
const (
	AttrStandardInformation uint32 = 0x10
	AttrFileName            uint32 = 0x30
	AttrData                uint32 = 0x80
)

// attrListTerminator is the sentinel that ends an attribute stream: the
// next 4 bytes, peek-decoded little-endian, equal 0xFFFFFFFF.
const attrListTerminator uint32 = 0xFFFFFFFF

// Timestamp is a 64-bit count of 100-nanosecond intervals since
// 1601-01-01 UTC (the OLE2 / Windows FILETIME epoch).
type Timestamp uint64

// ole2UnixEpochDelta is the number of 100ns ticks between the FILETIME
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const ole2UnixEpochDelta = 116_444_736_000_000_000

// ToUnix converts an OLE2 timestamp to Unix seconds.
func (t Timestamp) ToUnix() int64 {
	return (int64(t) - ole2UnixEpochDelta) / 10_000_000
}

// FromUnix encodes a Unix-seconds timestamp as an OLE2/FILETIME value.
func FromUnix(unixSeconds int64) Timestamp {
	return Timestamp(unixSeconds*10_000_000 + ole2UnixEpochDelta)
}

// StandardInformation is the body of attribute type 0x10.
type StandardInformation struct {
	Created          Timestamp
	Modified         Timestamp
	MFTModified      Timestamp
	Accessed         Timestamp
	PermissionFlags  uint32
	MaxVersions      uint32
	VersionNumber    uint64
}

// FileName is the body of attribute type 0x30.
type FileName struct {
	ParentDirRef     uint64
	Created          Timestamp
	Modified         Timestamp
	MFTModified      Timestamp
	Accessed         Timestamp
	AllocatedSize    uint64
	RealSize         uint64
	Flags            uint32
	EAOrReparse      uint32
	NameLength       uint8
	Namespace        uint8
	Name             string
}

// DataRun is the first decoded fragment of a non-resident $DATA
// attribute's run list.
type DataRun struct {
	Length uint64
	Offset int64
}

// CommonAttributeHeader is the shared prefix of every attribute header,
// resident or not, named or not.
type CommonAttributeHeader struct {
	AttributeType uint32
	Length        uint32
	NonResident   bool
	NameLength    uint8
	NameOffset    uint16
	Flags         uint16
	AttributeID   uint16
}

// ResidentHeader is the tail appended to resident attribute headers.
type ResidentHeader struct {
	ValueLength uint32
	ValueOffset uint16
	Indexed     uint8
}

// NonResidentHeader is the tail appended to non-resident attribute headers.
type NonResidentHeader struct {
	StartingVCN         uint64
	EndingVCN           uint64
	DataRunsOffset      uint16
	CompressionUnit     uint16
	FileAllocationSize  uint64
	FileRealSize        uint64
	InitialStreamSize   uint64
}

// AttributeHeader is the tagged {resident, non-resident} x {named,
// unnamed} variant every attribute carries. Only one of Resident /
// NonResident is populated, selected by Common.NonResident.
type AttributeHeader struct {
	Common      CommonAttributeHeader
	Resident    *ResidentHeader
	NonResident *NonResidentHeader
	Name        string
}

// FileAllocationSize returns the attribute's on-disk allocation size.
// Valid only for non-resident attributes; returns (0, false) otherwise.
func (h AttributeHeader) FileAllocationSize() (uint64, bool) {
	if h.NonResident == nil {
		return 0, false
	}
	return h.NonResident.FileAllocationSize, true
}

// MftHeader is the fixed-layout prefix of every 1024-byte MFT record.
type MftHeader struct {
	Signature            [4]byte
	UpdateSequenceOffset uint16
	UpdateSequenceSize   uint16
	LogFileSequenceNr    uint64
	UseCount             uint8
	DeletionCount        uint8
	HardLinkCount        uint16
	OffsetFirstAttribute uint16
	Flags                uint16
	FileSizeOnDisk       uint32
	SpaceAllocated       uint32
	BaseFileRecord       uint64
	NextAttributeID      uint16
}

// IsLive reports whether the record's signature is "FILE" (as opposed
// to "BAAD", a corrupted record, or anything else, an unused slot).
func (h MftHeader) IsLive() bool { return h.Signature == [4]byte{'F', 'I', 'L', 'E'} }

// IsCorrupt reports whether the record's signature is "BAAD".
func (h MftHeader) IsCorrupt() bool { return h.Signature == [4]byte{'B', 'A', 'A', 'D'} }

// Attribute pairs a decoded attribute header and body with the absolute
// image byte offset of the body's first byte -- the anchor the
// timestomp writer depends on.
type Attribute struct {
	ByteOffset uint64
	Header     AttributeHeader
	Body       any // one of StandardInformation, FileName, DataRun
}

// Record is one decoded MFT file record.
type Record struct {
	Index      int
	ByteOffset uint64 // absolute image offset of the record's first byte
	Header     MftHeader
	Attributes []Attribute
}

// StandardInformation returns the record's $STANDARD_INFORMATION body
// and its absolute byte offset, if present.
func (r Record) StandardInformation() (StandardInformation, uint64, bool) {
	for _, a := range r.Attributes {
		if si, ok := a.Body.(StandardInformation); ok {
			return si, a.ByteOffset, true
		}
	}
	return StandardInformation{}, 0, false
}

// FileName returns the record's (first) $FILE_NAME body and its absolute
// byte offset, if present. Hard-link duplicates beyond the first are
// dropped by the walker, per the documented simplification.
func (r Record) FileName() (FileName, uint64, bool) {
	for _, a := range r.Attributes {
		if fn, ok := a.Body.(FileName); ok {
			return fn, a.ByteOffset, true
		}
	}
	return FileName{}, 0, false
}
