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

// Package imgerr defines the error taxonomy shared by every decoder in
// this repository, so callers can branch on failure kind instead of
// matching diagnostic strings.
package imgerr

import "fmt"

// Kind classifies a decode or I/O failure.
type Kind int

const (
	// Io covers short reads, missing files, and seek failures.
	Io Kind = iota
	// Signature covers an expected magic value that was not present.
	Signature
	// Integrity covers CRC mismatches and invalid attribute lengths.
	Integrity
	// Encoding covers UTF-16/UTF-8 decode failures.
	Encoding
	// Unsupported covers operations requested on data the decoder
	// deliberately does not handle (e.g. MFT ops on a non-NTFS partition).
	Unsupported
	// NotFound covers missing partitions or MFT records.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Signature:
		return "signature"
	case Integrity:
		return "integrity"
	case Encoding:
		return "encoding"
	case Unsupported:
		return "unsupported"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and a short context string.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds an *Error of the given kind, formatting context like fmt.Sprintf.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Context: fmt.Sprintf(format, args...), Cause: cause}
}

// New builds an *Error of the given kind with no underlying cause.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Context: fmt.Sprintf(format, args...)}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ie, ok := err.(*Error); ok {
			e = ie
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
