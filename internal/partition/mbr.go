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
	"github.com/sscafiti/imgscope/internal/bytestream"
)

// bootstrapLength is the size of the MBR's bootstrap code region that
// precedes the four partition table entries.
const bootstrapLength = 446

// ParseMBR decodes the primary MBR at LBA 0 and recursively follows any
// Extended (0x05/0x0F) entries through their EBR chain, returning the
// root of the resulting tree. The root itself carries no Entry.
func ParseMBR(path string) (*MbrNode, error) {
	root := &MbrNode{}
	if err := parseSector(root, path, 0, 0, true); err != nil {
		return nil, err
	}
	return root, nil
}

// parseSector reads the boot record at imageOffsetSector, skips the
// bootstrap code, and decodes up to four partition table entries,
// recursing into any extended entry per the EBR chaining rule described
// in the MBR decoder's component design.
func parseSector(node *MbrNode, path string, imageOffsetSector, firstEBRLBA uint64, isFirst bool) error {
	s, err := bytestream.Open(path, imageOffsetSector, bootstrapLength+4*16)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SkipBytes(bootstrapLength); err != nil {
		return err
	}

	for i := 0; i < 4; i++ {
		peekByte, err := bytestream.PeekLE[uint8](s)
		if err != nil {
			return err
		}
		if peekByte >= 0x01 && peekByte <= 0x7F {
			break
		}

		entry, err := readMBREntry(s)
		if err != nil {
			return err
		}
		if entry.IsEmpty() {
			break
		}

		child := &MbrNode{Entry: &entry, ImageOffsetSectors: imageOffsetSector}
		if entry.IsExtended() {
			startLBA := uint64(entry.StartingLBA)
			if isFirst {
				if err := parseSector(child, path, startLBA, startLBA, false); err != nil {
					return err
				}
			} else {
				if err := parseSector(child, path, firstEBRLBA+startLBA, firstEBRLBA, false); err != nil {
					return err
				}
			}
		}
		node.Children = append(node.Children, child)
	}
	return nil
}

func readMBREntry(s *bytestream.Stream) (MBREntry, error) {
	var e MBREntry
	var err error

	if e.Bootable, err = bytestream.ReadLE[uint8](s); err != nil {
		return e, err
	}
	startCHS, err := s.ReadRaw(3)
	if err != nil {
		return e, err
	}
	copy(e.StartCHS[:], startCHS)

	if e.PartitionType, err = bytestream.ReadLE[uint8](s); err != nil {
		return e, err
	}
	endCHS, err := s.ReadRaw(3)
	if err != nil {
		return e, err
	}
	copy(e.EndCHS[:], endCHS)

	if e.StartingLBA, err = bytestream.ReadLE[uint32](s); err != nil {
		return e, err
	}
	if e.NumSectors, err = bytestream.ReadLE[uint32](s); err != nil {
		return e, err
	}
	return e, nil
}
