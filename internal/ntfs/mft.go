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
	"bytes"
	"encoding/binary"

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// Walker iterates a volume's Master File Table one record at a time,
// applying the update-sequence fixup to each slot before its attribute
// stream is decoded.
type Walker struct {
	path           string
	pbr            *PBR
	slot           *bytestream.Stream
	fileAllocation uint64
	index          int
	nextOffset     uint64
}

// NewWalker opens the NTFS partition boot record at partitionStartingLBA
// and positions a Walker at the start of its MFT, having first decoded
// the MFT's own file record (index 0, "$MFT") to learn the data extent
// every other record slot falls within.
func NewWalker(path string, partitionStartingLBA uint64) (*Walker, error) {
	pbr, err := ParsePBR(path, partitionStartingLBA)
	if err != nil {
		return nil, err
	}
	if pbr.MFTRecordSize == 0 {
		return nil, imgerr.New(imgerr.Unsupported, "mft record size resolved to 0")
	}

	slot, err := bytestream.Open(path, pbr.MFTByteOffset/bytestream.SectorSize, int(pbr.MFTRecordSize))
	if err != nil {
		return nil, err
	}

	w := &Walker{path: path, pbr: pbr, slot: slot, nextOffset: pbr.MFTByteOffset}

	mftRecord, err := w.decodeAt(pbr.MFTByteOffset, 0, false)
	if err != nil {
		slot.Close()
		return nil, imgerr.Wrap(imgerr.Integrity, err, "decode $MFT's own file record")
	}
	for _, a := range mftRecord.Attributes {
		if a.Header.Common.AttributeType == AttrData {
			if sz, ok := a.Header.FileAllocationSize(); ok && sz > 0 {
				w.fileAllocation = sz
			}
			break
		}
	}
	if w.fileAllocation == 0 {
		slot.Close()
		return nil, imgerr.New(imgerr.Unsupported, "$MFT's $DATA attribute did not resolve a file allocation size")
	}

	w.index = 1
	w.nextOffset = pbr.MFTByteOffset + uint64(pbr.MFTRecordSize)
	return w, nil
}

// PBR returns the partition boot record this walker was constructed from.
func (w *Walker) PBR() *PBR { return w.pbr }

// Close releases the underlying image handle.
func (w *Walker) Close() error { return w.slot.Close() }

// Next decodes the next live ("FILE") record, skipping unused and
// corrupt ("BAAD") slots transparently. It reports (nil, nil) once the
// MFT's data extent is exhausted.
func (w *Walker) Next() (*Record, error) {
	end := w.pbr.MFTByteOffset + w.fileAllocation
	for w.nextOffset < end {
		offset := w.nextOffset
		index := w.index
		w.nextOffset += uint64(w.pbr.MFTRecordSize)
		w.index++

		record, err := w.decodeAt(offset, index, true)
		if err != nil {
			if imgerr.Is(err, imgerr.Integrity) {
				continue // update-sequence mismatch: skip this slot, keep walking
			}
			return nil, err
		}
		if record.Header.IsLive() {
			return record, nil
		}
		// unused slot or "BAAD": skip and continue to the next one
	}
	return nil, nil
}

// decodeAt re-reads the record-sized slot at byteOffset, applies the
// update-sequence fixup, and decodes its attribute stream. ignoreData
// selects the spec's "ignore_data_attribute" mode: false only for the
// MFT's own file record (index 0), whose $DATA run locates the MFT's
// data extent; true for every other slot, where hitting a 0x80
// attribute terminates the record's attribute iteration instead of
// being decoded.
func (w *Walker) decodeAt(byteOffset uint64, index int, ignoreData bool) (*Record, error) {
	if err := w.slot.Reseek(byteOffset); err != nil {
		return nil, err
	}
	raw, err := w.slot.ReadRaw(w.slot.BufferSize())
	if err != nil {
		return nil, err
	}

	fixed, err := applyFixup(raw)
	if err != nil {
		return nil, err
	}

	return decodeRecord(fixed, byteOffset, index, ignoreData)
}

// applyFixup restores the two bytes at the end of each 512-byte sector
// in raw from the record's Update Sequence Array, after checking that
// both copies currently hold the Update Sequence Number (USN). A
// mismatch means the sector was torn -- written out of sync with the
// rest of the record -- and is surfaced as an Integrity error.
func applyFixup(raw []byte) ([]byte, error) {
	if len(raw) < 8 {
		return nil, imgerr.New(imgerr.Io, "record too short for a header")
	}
	usaOffset := binary.LittleEndian.Uint16(raw[4:6])
	usaSize := binary.LittleEndian.Uint16(raw[6:8])
	if usaSize == 0 {
		return nil, imgerr.New(imgerr.Integrity, "update sequence array is empty")
	}
	if int(usaOffset)+int(usaSize)*2 > len(raw) {
		return nil, imgerr.New(imgerr.Integrity, "update sequence array overruns the record")
	}

	usn := raw[usaOffset : usaOffset+2]
	numSectors := len(raw) / bytestream.SectorSize

	fixed := make([]byte, len(raw))
	copy(fixed, raw)

	for i := 0; i < numSectors; i++ {
		sectorEnd := (i + 1) * bytestream.SectorSize
		if sectorEnd > len(fixed) {
			break
		}
		tail := fixed[sectorEnd-2 : sectorEnd]
		if !bytes.Equal(tail, usn) {
			return nil, imgerr.New(imgerr.Integrity, "update sequence mismatch in sector %d", i)
		}
		entryOffset := int(usaOffset) + 2 + i*2
		if entryOffset+2 > len(raw) {
			return nil, imgerr.New(imgerr.Integrity, "update sequence array missing entry for sector %d", i)
		}
		copy(tail, raw[entryOffset:entryOffset+2])
	}

	return fixed, nil
}

// decodeRecord decodes a single fixed-up 1024-byte record buffer into
// its header and attribute stream. Unused and "BAAD" slots return a
// Record carrying only the header; no attribute stream is decoded for
// them. ignoreData mirrors the walker's own parameter: when true, a
// 0x80 attribute terminates the attribute stream instead of being
// decoded (spec §4.6's "otherwise break out of attribute iteration").
func decodeRecord(fixed []byte, byteOffset uint64, index int, ignoreData bool) (*Record, error) {
	s := bytestream.NewBuffer(fixed, byteOffset)

	var hdr MftHeader
	sigBytes, err := s.ReadRaw(4)
	if err != nil {
		return nil, err
	}
	copy(hdr.Signature[:], sigBytes)
	if hdr.UpdateSequenceOffset, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}
	if hdr.UpdateSequenceSize, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}
	if hdr.LogFileSequenceNr, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, err
	}
	if hdr.UseCount, err = bytestream.ReadLE[uint8](s); err != nil {
		return nil, err
	}
	if hdr.DeletionCount, err = bytestream.ReadLE[uint8](s); err != nil {
		return nil, err
	}
	if hdr.HardLinkCount, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}
	if hdr.OffsetFirstAttribute, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}
	if hdr.Flags, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}
	if hdr.FileSizeOnDisk, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, err
	}
	if hdr.SpaceAllocated, err = bytestream.ReadLE[uint32](s); err != nil {
		return nil, err
	}
	if hdr.BaseFileRecord, err = bytestream.ReadLE[uint64](s); err != nil {
		return nil, err
	}
	if hdr.NextAttributeID, err = bytestream.ReadLE[uint16](s); err != nil {
		return nil, err
	}

	record := &Record{Index: index, ByteOffset: byteOffset, Header: hdr}
	if !hdr.IsLive() {
		return record, nil
	}

	if err := s.SeekWithinWindow(byteOffset + uint64(hdr.OffsetFirstAttribute)); err != nil {
		return nil, err
	}

	sawStandardInformation := false
	sawFileName := false
	sawData := false

attrs:
	for s.CurrentByteOffset() < byteOffset+uint64(len(fixed)) {
		terminator, err := bytestream.PeekLE[uint32](s)
		if err != nil {
			break
		}
		if terminator == attrListTerminator {
			break
		}

		attrStart := s.CurrentByteOffset()
		header, err := readAttributeHeader(s)
		if err != nil {
			return nil, err
		}
		if header.Common.Length == 0 {
			return nil, imgerr.New(imgerr.Integrity, "zero-length attribute at %d", attrStart)
		}

		bodyOffset := s.CurrentByteOffset()
		var body any

		switch header.Common.AttributeType {
		case AttrStandardInformation:
			if !sawStandardInformation {
				si, err := readStandardInformation(s)
				if err != nil {
					return nil, err
				}
				body = si
				sawStandardInformation = true
			}
		case AttrFileName:
			if !sawFileName {
				fn, err := readFileName(s)
				if err != nil {
					return nil, err
				}
				body = fn
				sawFileName = true
			}
		case AttrData:
			if ignoreData {
				// Per spec §4.6: when the $DATA attribute is ignored
				// (every slot but the MFT's own record 0), hitting it
				// stops decoding this record's attribute stream.
				break attrs
			}
			if !sawData && header.Common.NonResident {
				dr, err := readDataRun(s)
				if err != nil {
					return nil, err
				}
				body = dr
				sawData = true
			}
		default:
			// Unrecognized attribute type: stop decoding this record's
			// stream rather than risk misreading the remaining bytes.
			break attrs
		}

		if body != nil {
			record.Attributes = append(record.Attributes, Attribute{
				ByteOffset: bodyOffset,
				Header:     header,
				Body:       body,
			})
		}

		if err := s.SeekWithinWindow(attrStart + uint64(header.Common.Length)); err != nil {
			return nil, err
		}
	}

	return record, nil
}
