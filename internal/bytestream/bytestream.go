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

// Package bytestream implements the windowed, seekable decoder every
// partition and NTFS decoder in this repository reads through.
package bytestream

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/sscafiti/imgscope/internal/imgerr"
)

// SectorSize is the fixed atomic I/O unit of the images this tool reads.
const SectorSize = 512

// Integer constrains the typed reads to fixed-width integers, mirroring
// the generic `read<T>` family the original decoder exposed.
type Integer interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

// Stream is a buffered, seekable window over a single open file. It owns
// the file handle for its whole lifetime and never re-opens the backing
// file: out-of-window reads go through ReadAt on the same handle.
type Stream struct {
	f      *os.File
	owned  bool
	origin int64 // absolute byte offset of buf[0] within the file
	buf    []byte
	pos    int // cursor offset within buf
}

// Open opens path and constructs a Stream whose window starts at the
// sector-aligned byte offset implied by startSector and is size bytes
// long. The cursor starts at the beginning of the window.
func Open(path string, startSector uint64, size int) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "open %s", path)
	}
	s, err := newFromFile(f, true, int64(startSector)*SectorSize, size)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// OpenAtByteOffset opens path and constructs a Stream whose window is
// aligned to the sector enclosing byteOffset; the cursor is advanced by
// the intra-sector remainder so CurrentByteOffset() == byteOffset.
func OpenAtByteOffset(path string, byteOffset uint64, size int) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "open %s", path)
	}
	aligned := (int64(byteOffset) / SectorSize) * SectorSize
	s, err := newFromFile(f, true, aligned, size)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.pos = int(int64(byteOffset) - aligned)
	return s, nil
}

// NewFromFile builds a Stream over an already-open file without taking
// ownership of it (the caller remains responsible for Close).
func NewFromFile(f *os.File, originByte int64, size int) (*Stream, error) {
	return newFromFile(f, false, originByte, size)
}

func newFromFile(f *os.File, owned bool, originByte int64, size int) (*Stream, error) {
	buf := make([]byte, size)
	n, err := f.ReadAt(buf, originByte)
	if err != nil && err != io.EOF {
		return nil, imgerr.Wrap(imgerr.Io, err, "read window at %d", originByte)
	}
	if n < size {
		return nil, imgerr.New(imgerr.Io, "short read: wanted %d bytes at %d, got %d", size, originByte, n)
	}
	return &Stream{f: f, owned: owned, origin: originByte, buf: buf}, nil
}

// NewBuffer wraps an already-decoded in-memory buffer (for example, an
// MFT record after its update-sequence fixup has been applied) in a
// Stream so callers can reuse the same typed-read helpers. origin is the
// absolute image byte offset the buffer was read from, so
// CurrentByteOffset() still reports a meaningful image location.
// Out-of-window file reads are not available on a buffer-backed Stream.
func NewBuffer(buf []byte, origin uint64) *Stream {
	return &Stream{buf: buf, origin: int64(origin)}
}

// Close releases the underlying file handle if this Stream owns it.
func (s *Stream) Close() error {
	if s.owned {
		return s.f.Close()
	}
	return nil
}

// CurrentByteOffset returns the absolute image offset of the cursor.
func (s *Stream) CurrentByteOffset() uint64 {
	return uint64(s.origin) + uint64(s.pos)
}

// BufferSize returns the size of the in-memory window.
func (s *Stream) BufferSize() int { return len(s.buf) }

func (s *Stream) remaining() int { return len(s.buf) - s.pos }

// ReadRaw consumes n bytes as a dynamic byte sequence, advancing the cursor.
func (s *Stream) ReadRaw(n int) ([]byte, error) {
	if s.remaining() < n {
		return nil, imgerr.New(imgerr.Io, "short read: wanted %d bytes, %d remain in window", n, s.remaining())
	}
	out := make([]byte, n)
	copy(out, s.buf[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// ReadByteArray consumes exactly n bytes as a fixed-size array (returned
// as a slice; callers convert to [N]byte via a slice-to-array conversion
// when N is known at the call site).
func (s *Stream) ReadByteArray(n int) ([]byte, error) {
	return s.ReadRaw(n)
}

// SkipBytes advances the cursor by n bytes without returning them.
func (s *Stream) SkipBytes(n int) error {
	if s.remaining() < n {
		return imgerr.New(imgerr.Io, "skip past window end: wanted %d bytes, %d remain", n, s.remaining())
	}
	s.pos += n
	return nil
}

// Reseek repositions the window to start at the sector boundary enclosing
// byteOffset, re-reading BufferSize() bytes from the backing file, and
// sets the cursor to the intra-sector remainder. It is the mechanism the
// MFT walker uses to step between record slots without constructing a
// fresh Stream per slot.
func (s *Stream) Reseek(byteOffset uint64) error {
	aligned := (int64(byteOffset) / SectorSize) * SectorSize
	n, err := s.f.ReadAt(s.buf, aligned)
	if err != nil && err != io.EOF {
		return imgerr.Wrap(imgerr.Io, err, "reseek to %d", byteOffset)
	}
	if n < len(s.buf) {
		return imgerr.New(imgerr.Io, "short read on reseek: wanted %d bytes at %d, got %d", len(s.buf), aligned, n)
	}
	s.origin = aligned
	s.pos = int(int64(byteOffset) - aligned)
	return nil
}

// SeekWithinWindow repositions the cursor to byteOffset, which must fall
// within the current window or at its end ([origin, origin+len(buf)]).
// It does not re-read the backing file, unlike Reseek.
func (s *Stream) SeekWithinWindow(byteOffset uint64) error {
	rel := int64(byteOffset) - s.origin
	if rel < 0 || rel > int64(len(s.buf)) {
		return imgerr.New(imgerr.Io, "seek to %d falls outside window [%d, %d)", byteOffset, s.origin, s.origin+int64(len(s.buf)))
	}
	s.pos = int(rel)
	return nil
}

func readT[T Integer](s *Stream, order binary.ByteOrder, advance bool) (T, error) {
	var zero T
	n := binary.Size(zero)
	if s.remaining() < n {
		return zero, imgerr.New(imgerr.Io, "short read: wanted %d bytes, %d remain in window", n, s.remaining())
	}
	r := bytes.NewReader(s.buf[s.pos : s.pos+n])
	var v T
	if err := binary.Read(r, order, &v); err != nil {
		return zero, imgerr.Wrap(imgerr.Io, err, "decode %d-byte integer", n)
	}
	if advance {
		s.pos += n
	}
	return v, nil
}

// ReadLE consumes sizeof(T) bytes as a little-endian integer, advancing
// the cursor.
func ReadLE[T Integer](s *Stream) (T, error) { return readT[T](s, binary.LittleEndian, true) }

// ReadBE consumes sizeof(T) bytes as a big-endian integer, advancing the
// cursor.
func ReadBE[T Integer](s *Stream) (T, error) { return readT[T](s, binary.BigEndian, true) }

// PeekLE decodes sizeof(T) bytes as a little-endian integer without
// advancing the cursor.
func PeekLE[T Integer](s *Stream) (T, error) { return readT[T](s, binary.LittleEndian, false) }

// PeekBE decodes sizeof(T) bytes as a big-endian integer without
// advancing the cursor.
func PeekBE[T Integer](s *Stream) (T, error) { return readT[T](s, binary.BigEndian, false) }

// ReadRawSectorsFromFile performs an out-of-window random read directly
// from the backing file. It does not perturb the cursor or the window:
// it uses ReadAt, which the OS serves without moving any seek position
// shared with the window's own reads.
func (s *Stream) ReadRawSectorsFromFile(fromSector, count uint64) ([]byte, error) {
	return s.ReadRawBytesFromFile(fromSector*SectorSize, int(count)*SectorSize)
}

// ReadRawBytesFromFile is the byte-offset counterpart of
// ReadRawSectorsFromFile; see its doc for the cursor-neutrality contract.
func (s *Stream) ReadRawBytesFromFile(fromByte uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := s.f.ReadAt(buf, int64(fromByte))
	if err != nil && err != io.EOF {
		return nil, imgerr.Wrap(imgerr.Io, err, "out-of-window read at %d", fromByte)
	}
	if read < n {
		return nil, imgerr.New(imgerr.Io, "short out-of-window read: wanted %d bytes at %d, got %d", n, fromByte, read)
	}
	return buf, nil
}
