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

// Package device opens the raw image this tool inspects, whether it is
// a flat disk image file or a block device, and reports its sector size
// and total size.
package device

import (
	"io"
	"os"

	"github.com/sscafiti/imgscope/internal/imgerr"
)

// DefaultSectorSize is used when the backing path is a regular file or
// when the platform-specific size probe is unavailable.
const DefaultSectorSize = 512

// Info describes an opened image: a regular disk-image file or a raw
// block device, depending on what DevicePath resolves to.
type Info struct {
	DevicePath string
	SectorSize int64
	Size       int64
	IsDevice   bool
	file       *os.File
}

// Open opens path read-only (or read-write when readWrite is set) and
// determines its sector size and total size. Regular files are sized by
// seeking to the end; block devices are probed with the platform's
// native ioctl/DeviceIoControl call, falling back to a seek-based size
// when the probe is unavailable.
func Open(path string, readWrite bool) (*Info, error) {
	flag := os.O_RDONLY
	if readWrite {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.Io, err, "open %s", path)
	}

	info := &Info{DevicePath: path, SectorSize: DefaultSectorSize, file: f}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, imgerr.Wrap(imgerr.Io, err, "stat %s", path)
	}
	info.IsDevice = stat.Mode()&os.ModeDevice != 0

	if info.IsDevice {
		sectorSize, size, probeErr := probeDeviceGeometry(f)
		if probeErr == nil {
			info.SectorSize = sectorSize
			info.Size = size
			return info, nil
		}
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, imgerr.Wrap(imgerr.Io, err, "seek to end of %s", path)
	}
	info.Size = size
	return info, nil
}

// Close releases the underlying file handle.
func (i *Info) Close() error { return i.file.Close() }

// ReadAt reads from the device or image at an absolute byte offset.
func (i *Info) ReadAt(p []byte, off int64) (int, error) { return i.file.ReadAt(p, off) }

// WriteAt writes to the device or image at an absolute byte offset.
// Callers must have opened via Open(path, true) for this to succeed.
func (i *Info) WriteAt(p []byte, off int64) (int, error) { return i.file.WriteAt(p, off) }

// File exposes the underlying handle for callers (such as
// internal/bytestream) that need to construct their own windowed reader
// over it.
func (i *Info) File() *os.File { return i.file }
