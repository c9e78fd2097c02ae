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

// Package progress reports MFT-walk progress to the terminal during the
// long record-by-record scans --extract_mft and --dump_mft perform.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progressbar/v3 instance sized to the number of record
// slots a Walker will visit.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewMFTBar constructs a progress bar for an MFT walk. Pass -1 for
// totalSlots when the walker's bound (ceil(file_allocation_size /
// mft_record_size)) is not known ahead of time; the bar then renders a
// running count instead of a completion percentage.
func NewMFTBar(w io.Writer, totalSlots int) *Bar {
	return &Bar{
		bar: progressbar.NewOptions(totalSlots,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("walking MFT"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Add advances the bar by one record slot visited.
func (b *Bar) Add() { _ = b.bar.Add(1) }

// Close finalizes the bar's rendering.
func (b *Bar) Close() { _ = b.bar.Finish() }
