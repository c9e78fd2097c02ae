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

// Package crc32check validates the two CRC32 fields carried by a GPT
// header (the header itself and its partition-entry array) against the
// IEEE-802.3 polynomial the UEFI spec mandates.
package crc32check

import "hash/crc32"

// Checksum computes the IEEE-802.3 CRC32 (polynomial 0xEDB88320, the same
// table stdlib's crc32.IEEE uses) of b.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// HeaderChecksum computes the CRC32 of a GPT header buffer with its own
// 4-byte CRC field (at crcFieldOffset) zeroed for the duration of the
// calculation, per the UEFI spec's self-referential CRC rule.
func HeaderChecksum(header []byte, crcFieldOffset int) uint32 {
	scratch := make([]byte, len(header))
	copy(scratch, header)
	for i := 0; i < 4; i++ {
		scratch[crcFieldOffset+i] = 0
	}
	return Checksum(scratch)
}

// Verify reports whether want equals the CRC32 of got.
func Verify(got []byte, want uint32) bool {
	return Checksum(got) == want
}
