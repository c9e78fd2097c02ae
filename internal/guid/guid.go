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

// Package guid decodes the mixed-endian 16-byte identifiers used by GPT
// and APM: the first three dash-delimited fields are little-endian, the
// last two are big-endian. It delegates storage and canonical formatting
// to google/uuid once the byte order has been normalized.
package guid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUID is a mixed-endian 16-byte identifier. String() renders the
// canonical uppercase form used throughout partition tooling.
type GUID [16]byte

// Parse reads a mixed-endian GUID from its on-disk 16-byte form.
func Parse(b []byte) (GUID, error) {
	var g GUID
	if len(b) != 16 {
		return g, fmt.Errorf("guid: invalid length %d, want 16", len(b))
	}
	copy(g[:], b)
	return g, nil
}

// toRFC4122 swaps the first three fields from little-endian to the
// big-endian order uuid.UUID expects, leaving the trailing 8 bytes (the
// clock sequence and node, already big-endian on disk) untouched.
func (g GUID) toRFC4122() uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// fromRFC4122 is the inverse of toRFC4122: it rebuilds the on-disk
// mixed-endian byte layout from a canonical uuid.UUID.
func fromRFC4122(u uuid.UUID) GUID {
	var g GUID
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}

// String renders the canonical uppercase XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX form.
func (g GUID) String() string {
	return strings.ToUpper(g.toRFC4122().String())
}

// FromString parses a canonical (dashed, either case) GUID string back
// into its mixed-endian on-disk byte form.
func FromString(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return fromRFC4122(u), nil
}

// IsZero reports whether every byte of the GUID is zero.
func (g GUID) IsZero() bool {
	for _, b := range g {
		if b != 0 {
			return false
		}
	}
	return true
}
