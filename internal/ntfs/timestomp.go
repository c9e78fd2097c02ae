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
	"encoding/binary"
	"os"

	"github.com/sscafiti/imgscope/internal/bytestream"
	"github.com/sscafiti/imgscope/internal/imgerr"
)

// TimestompResult reports what a Timestomp call overwrote.
type TimestompResult struct {
	RecordIndex int
	ByteOffset  uint64
	UnixSeconds int64
}

// Timestomp locates the first live MFT record whose $FILE_NAME attribute
// matches fileName and overwrites all four $STANDARD_INFORMATION
// timestamps and all four $FILE_NAME timestamps with unixSeconds,
// encoded as OLE2/FILETIME. The record's update-sequence protection is
// recomputed afterward so the rewritten record still fixes up cleanly.
//
// No bytes are written to disk if no record matches; a mismatch is
// reported as a NotFound error.
func Timestomp(path string, partitionStartingLBA uint64, fileName string, unixSeconds int64) (*TimestompResult, error) {
	walker, err := NewWalker(path, partitionStartingLBA)
	if err != nil {
		return nil, err
	}

	var target *Record
	for {
		record, err := walker.Next()
		if err != nil {
			walker.Close()
			return nil, err
		}
		if record == nil {
			break
		}
		if fn, _, ok := record.FileName(); ok && fn.Name == fileName {
			target = record
			break
		}
	}
	recordSize := walker.PBR().MFTRecordSize
	walker.Close()

	if target == nil {
		return nil, imgerr.New(imgerr.NotFound, "no live record with file name %q", fileName)
	}

	_, siOffset, hasSI := target.StandardInformation()
	_, fnOffset, hasFN := target.FileName()
	if !hasSI || !hasFN {
		return nil, imgerr.New(imgerr.Integrity, "matched record %d is missing $STANDARD_INFORMATION or $FILE_NAME", target.Index)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "open %s read-write", path)
	}
	defer f.Close()

	raw := make([]byte, recordSize)
	if _, err := f.ReadAt(raw, int64(target.ByteOffset)); err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "read record %d for rewrite", target.Index)
	}

	fixed, err := applyFixup(raw)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.Integrity, err, "record %d failed fixup before rewrite", target.Index)
	}

	encoded := uint64(FromUnix(unixSeconds))
	relSI := int(siOffset - target.ByteOffset)
	relFN := int(fnOffset - target.ByteOffset)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(fixed[relSI+8*i:relSI+8*i+8], encoded)
	}
	for i := 0; i < 4; i++ {
		off := relFN + 8 + 8*i // $FILE_NAME's 8-byte parent reference precedes its timestamps
		binary.LittleEndian.PutUint64(fixed[off:off+8], encoded)
	}

	originalUSN := binary.LittleEndian.Uint16(raw[binary.LittleEndian.Uint16(raw[4:6]):])
	reprotected := reapplyFixup(fixed, originalUSN+1)

	if _, err := f.WriteAt(reprotected, int64(target.ByteOffset)); err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "write rewritten record %d", target.Index)
	}

	return &TimestompResult{
		RecordIndex: target.Index,
		ByteOffset:  target.ByteOffset,
		UnixSeconds: unixSeconds,
	}, nil
}

// reapplyFixup is the inverse of applyFixup: it captures each sector's
// current tail into the Update Sequence Array and stamps newUSN over
// every tail, including the array's own first entry.
func reapplyFixup(fixed []byte, newUSN uint16) []byte {
	out := make([]byte, len(fixed))
	copy(out, fixed)

	usaOffset := binary.LittleEndian.Uint16(out[4:6])
	usaSize := binary.LittleEndian.Uint16(out[6:8])
	numSectors := len(out) / bytestream.SectorSize

	binary.LittleEndian.PutUint16(out[usaOffset:usaOffset+2], newUSN)

	for i := 0; i < numSectors && i < int(usaSize)-1; i++ {
		sectorEnd := (i + 1) * bytestream.SectorSize
		entryOffset := int(usaOffset) + 2 + i*2
		copy(out[entryOffset:entryOffset+2], out[sectorEnd-2:sectorEnd])
		binary.LittleEndian.PutUint16(out[sectorEnd-2:sectorEnd], newUSN)
	}

	return out
}
