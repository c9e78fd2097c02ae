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

// Package format renders the byte counts this tool deals in -- device
// sizes, partition extents, $FILE_NAME real sizes -- the way forensic
// reporting tools conventionally do: binary (1024-based) magnitudes
// under IEC unit labels, never the decimal KB/MB a filesystem's own
// df-style tooling would use.
package format

import "fmt"

// FormatBytes renders b using IEC binary prefixes (KiB, MiB, GiB,
// TiB), matching the byte_run and filesize conventions report and
// dfxml output already commit to. Whole magnitudes print without a
// fractional part.
func FormatBytes(b int64) string {
	const (
		_   = iota // ignore first value
		KiB = 1 << (10 * iota)
		MiB
		GiB
		TiB
	)

	val := float64(b)
	var unit string

	switch {
	case b >= TiB:
		val /= float64(TiB)
		unit = "TiB"
	case b >= GiB:
		val /= float64(GiB)
		unit = "GiB"
	case b >= MiB:
		val /= float64(MiB)
		unit = "MiB"
	case b >= KiB:
		val /= float64(KiB)
		unit = "KiB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int64(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}
