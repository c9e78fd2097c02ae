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

// Result bundles whichever scheme-specific decode the dispatcher chose,
// plus the flattened, on-disk-ordered list of partitions every consumer
// actually wants.
type Result struct {
	Scheme     Scheme
	Partitions []Ref
	MBRRoot    *MbrNode   // set when Scheme == SchemeMBR or an MBR hosts a GPT
	GPT        *GPTResult // set when Scheme == SchemeGPT
}

// Detect classifies the image at path as APM / GPT-hosting / MBR and
// routes to the matching decoder, per the scheme dispatcher's
// responsibility: APM is checked first since it owns LBA 0 outright,
// then the primary MBR is parsed and its entries inspected for the
// 0xEE protective marker that signals a GPT underneath.
func Detect(path string) (*Result, error) {
	isAPM, err := IsAPM(path)
	if err != nil {
		return nil, err
	}
	if isAPM {
		entries, err := ParseAPM(path)
		if err != nil {
			return nil, err
		}
		var refs []Ref
		for _, e := range entries {
			ref, err := e.Ref()
			if err != nil {
				continue
			}
			refs = append(refs, ref)
		}
		return &Result{Scheme: SchemeAPM, Partitions: refs}, nil
	}

	root, err := ParseMBR(path)
	if err != nil {
		return nil, err
	}
	if root.ContainsGPTMarker() {
		gpt, err := ParseGPT(path)
		if err != nil {
			return nil, err
		}
		var refs []Ref
		for _, e := range gpt.Entries {
			refs = append(refs, e.Ref())
		}
		return &Result{Scheme: SchemeGPT, Partitions: refs, MBRRoot: root, GPT: gpt}, nil
	}

	return &Result{Scheme: SchemeMBR, Partitions: root.Flatten(), MBRRoot: root}, nil
}
