//go:build windows

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

package device

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// diskGeometry mirrors the fixed-size prefix of Windows' DISK_GEOMETRY
// structure, enough to recover the logical sector size.
type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

const ioctlDiskGetDriveGeometry = 0x70000
const ioctlDiskGetLengthInfo = 0x7405C

// probeDeviceGeometry asks the kernel for a physical/logical volume's
// sector size and total length via DeviceIoControl.
func probeDeviceGeometry(f *os.File) (sectorSize, size int64, err error) {
	handle := windows.Handle(f.Fd())

	var geom diskGeometry
	var bytesReturned uint32
	if err := windows.DeviceIoControl(handle, ioctlDiskGetDriveGeometry, nil, 0,
		(*byte)(unsafe.Pointer(&geom)), uint32(unsafe.Sizeof(geom)), &bytesReturned, nil); err != nil {
		return 0, 0, err
	}

	var length int64
	if err := windows.DeviceIoControl(handle, ioctlDiskGetLengthInfo, nil, 0,
		(*byte)(unsafe.Pointer(&length)), uint32(unsafe.Sizeof(length)), &bytesReturned, nil); err != nil {
		return 0, 0, err
	}

	return int64(geom.BytesPerSector), length, nil
}
