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
	"unicode/utf16"
	"unicode/utf8"

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// readAttributeHeader decodes the common prefix and whichever
// resident/non-resident tail the non-resident flag selects, followed by
// the attribute name if name_length > 0.
func readAttributeHeader(s *bytestream.Stream) (AttributeHeader, error) {
	var h AttributeHeader
	var err error

	if h.Common.AttributeType, err = bytestream.ReadLE[uint32](s); err != nil {
		return h, err
	}
	if h.Common.Length, err = bytestream.ReadLE[uint32](s); err != nil {
		return h, err
	}
	nonResidentFlag, err := bytestream.ReadLE[uint8](s)
	if err != nil {
		return h, err
	}
	h.Common.NonResident = nonResidentFlag != 0
	if h.Common.NameLength, err = bytestream.ReadLE[uint8](s); err != nil {
		return h, err
	}
	if h.Common.NameOffset, err = bytestream.ReadLE[uint16](s); err != nil {
		return h, err
	}
	if h.Common.Flags, err = bytestream.ReadLE[uint16](s); err != nil {
		return h, err
	}
	if h.Common.AttributeID, err = bytestream.ReadLE[uint16](s); err != nil {
		return h, err
	}

	if !h.Common.NonResident {
		var r ResidentHeader
		if r.ValueLength, err = bytestream.ReadLE[uint32](s); err != nil {
			return h, err
		}
		if r.ValueOffset, err = bytestream.ReadLE[uint16](s); err != nil {
			return h, err
		}
		if r.Indexed, err = bytestream.ReadLE[uint8](s); err != nil {
			return h, err
		}
		if _, err = s.ReadRaw(1); err != nil { // alignment padding
			return h, err
		}
		h.Resident = &r
	} else {
		var n NonResidentHeader
		if n.StartingVCN, err = bytestream.ReadLE[uint64](s); err != nil {
			return h, err
		}
		if n.EndingVCN, err = bytestream.ReadLE[uint64](s); err != nil {
			return h, err
		}
		if n.DataRunsOffset, err = bytestream.ReadLE[uint16](s); err != nil {
			return h, err
		}
		if n.CompressionUnit, err = bytestream.ReadLE[uint16](s); err != nil {
			return h, err
		}
		if _, err = s.ReadRaw(4); err != nil { // reserved padding
			return h, err
		}
		if n.FileAllocationSize, err = bytestream.ReadLE[uint64](s); err != nil {
			return h, err
		}
		if n.FileRealSize, err = bytestream.ReadLE[uint64](s); err != nil {
			return h, err
		}
		if n.InitialStreamSize, err = bytestream.ReadLE[uint64](s); err != nil {
			return h, err
		}
		h.NonResident = &n
	}

	if h.Common.NameLength > 0 {
		nameBytes, err := s.ReadRaw(int(h.Common.NameLength) * 2)
		if err != nil {
			return h, err
		}
		name, err := decodeUTF16LE(nameBytes, int(h.Common.NameLength))
		if err != nil {
			return h, imgerr.Wrap(imgerr.Encoding, err, "attribute name")
		}
		h.Name = name
	}

	return h, nil
}

// readStandardInformation decodes the 0x10 attribute body.
func readStandardInformation(s *bytestream.Stream) (StandardInformation, error) {
	var si StandardInformation
	var err error

	if si.Created, err = readNtfsTimestamp(s); err != nil {
		return si, err
	}
	if si.Modified, err = readNtfsTimestamp(s); err != nil {
		return si, err
	}
	if si.MFTModified, err = readNtfsTimestamp(s); err != nil {
		return si, err
	}
	if si.Accessed, err = readNtfsTimestamp(s); err != nil {
		return si, err
	}
	if si.PermissionFlags, err = bytestream.ReadLE[uint32](s); err != nil {
		return si, err
	}
	if si.MaxVersions, err = bytestream.ReadLE[uint32](s); err != nil {
		return si, err
	}
	if si.VersionNumber, err = bytestream.ReadLE[uint64](s); err != nil {
		return si, err
	}
	return si, nil
}

// readFileName decodes the 0x30 attribute body.
func readFileName(s *bytestream.Stream) (FileName, error) {
	var fn FileName
	var err error

	if fn.ParentDirRef, err = bytestream.ReadLE[uint64](s); err != nil {
		return fn, err
	}
	if fn.Created, err = readNtfsTimestamp(s); err != nil {
		return fn, err
	}
	if fn.Modified, err = readNtfsTimestamp(s); err != nil {
		return fn, err
	}
	if fn.MFTModified, err = readNtfsTimestamp(s); err != nil {
		return fn, err
	}
	if fn.Accessed, err = readNtfsTimestamp(s); err != nil {
		return fn, err
	}
	if fn.AllocatedSize, err = bytestream.ReadLE[uint64](s); err != nil {
		return fn, err
	}
	if fn.RealSize, err = bytestream.ReadLE[uint64](s); err != nil {
		return fn, err
	}
	if fn.Flags, err = bytestream.ReadLE[uint32](s); err != nil {
		return fn, err
	}
	if fn.EAOrReparse, err = bytestream.ReadLE[uint32](s); err != nil {
		return fn, err
	}
	if fn.NameLength, err = bytestream.ReadLE[uint8](s); err != nil {
		return fn, err
	}
	if fn.Namespace, err = bytestream.ReadLE[uint8](s); err != nil {
		return fn, err
	}
	nameBytes, err := s.ReadRaw(int(fn.NameLength) * 2)
	if err != nil {
		return fn, err
	}
	name, err := decodeUTF16LE(nameBytes, int(fn.NameLength))
	if err != nil {
		return fn, imgerr.Wrap(imgerr.Encoding, err, "file name")
	}
	fn.Name = name
	return fn, nil
}

// readDataRun decodes the first fragment of a non-resident attribute's
// data-run list: a nibble-prefixed byte splits into a length-field
// width (low nibble) and an offset-field width (high nibble); the
// offset is sign-extended to 64 bits.
func readDataRun(s *bytestream.Stream) (DataRun, error) {
	header, err := bytestream.ReadLE[uint8](s)
	if err != nil {
		return DataRun{}, err
	}
	lowNibble := header & 0x0F
	highNibble := (header & 0xF0) >> 4

	lengthBytes, err := s.ReadRaw(int(lowNibble))
	if err != nil {
		return DataRun{}, err
	}
	var length uint64
	for i, b := range lengthBytes {
		length |= uint64(b) << (8 * uint(i))
	}

	offsetBytes, err := s.ReadRaw(int(highNibble))
	if err != nil {
		return DataRun{}, err
	}
	var offset int64
	for i, b := range offsetBytes {
		offset |= int64(b) << (8 * uint(i))
	}
	if highNibble > 0 && offsetBytes[highNibble-1]&0x80 != 0 {
		for i := highNibble; i < 8; i++ {
			offset |= int64(0xFF) << (8 * uint(i))
		}
	}

	return DataRun{Length: length, Offset: offset}, nil
}

func readNtfsTimestamp(s *bytestream.Stream) (Timestamp, error) {
	v, err := bytestream.ReadLE[uint64](s)
	return Timestamp(v), err
}

// decodeUTF16LE decodes up to maxUnits little-endian UTF-16 code units,
// stopping at the first NUL code unit.
func decodeUTF16LE(b []byte, maxUnits int) (string, error) {
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
			return "", imgerr.New(imgerr.Encoding, "invalid utf16 sequence")
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
