// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package include

import (
	"fmt"
	"sort"
)

// Method records how a Bound's content entered the flattened buffer.
type Method int

const (
	// DTS means the bound's content was spliced in via a textual
	// `/include/ "path"` directive.
	DTS Method = iota
	// CPP means the bound's content was entered via a C preprocessor
	// linemarker embedded in the stream.
	CPP
)

func (m Method) String() string {
	if m == CPP {
		return "CPP"
	}
	return "DTS"
}

// Bound maps a half-open byte interval of the flattened output buffer
// back to the file and in-file byte offset it originated from.
type Bound struct {
	// Path is the originating source file.
	Path string
	// GlobalStart is the first byte in the output buffer covered by
	// this bound.
	GlobalStart int
	// Len is the byte length of this bound in the output buffer.
	Len int
	// ChildStart is the byte offset within Path where this bound's
	// content began.
	ChildStart int
	// Method records how this bound's content was included.
	Method Method
}

// End is the first byte past this bound in the output buffer
// (exclusive).
func (b Bound) End() int {
	return b.GlobalStart + b.Len
}

func (b Bound) String() string {
	return fmt.Sprintf("%s[%d:%d)+%d(%s)", b.Path, b.GlobalStart, b.End(), b.ChildStart, b.Method)
}

// sortBounds orders bounds ascending by GlobalStart, ties broken by
// End, the ordering a completed bounds vector must hold for
// BoundsContainingOffset's binary search to work.
func sortBounds(bounds []Bound) {
	sort.SliceStable(bounds, func(i, j int) bool {
		if bounds[i].GlobalStart != bounds[j].GlobalStart {
			return bounds[i].GlobalStart < bounds[j].GlobalStart
		}
		return bounds[i].End() < bounds[j].End()
	})
}

// SplitBounds adjusts a parent bounds vector to accommodate that the
// half-open interval [start, end) of the output buffer is now
// occupied by substituted included content. offset accounts for the
// number of source bytes the `/include/` directive itself consumed in
// the parent file but that do not appear in the output buffer.
//
// It returns the bounds vector extended with any remainder bounds and
// re-sorted; bounds is also mutated in place for the entries that
// only need truncating or shifting.
func SplitBounds(bounds []Bound, start, end, offset int) []Bound {
	var remainders []Bound

	for i := range bounds {
		b := &bounds[i]
		switch {
		case b.GlobalStart < start && b.End() >= start:
			remainder := Bound{
				Path:        b.Path,
				GlobalStart: end,
				ChildStart:  b.ChildStart + (start - b.GlobalStart) + offset,
				Len:         b.End() - start,
				Method:      b.Method,
			}
			b.Len = start - b.GlobalStart
			remainders = append(remainders, remainder)
		case b.GlobalStart == start:
			shift := end - start
			b.GlobalStart += shift
			b.Len -= shift
		}
	}

	bounds = append(bounds, remainders...)
	sortBounds(bounds)
	return bounds
}

// BoundsContainingOffset performs a binary search over bounds (which
// must be sorted and non-overlapping) for the one whose interval
// contains offset.
func BoundsContainingOffset(bounds []Bound, offset int) (*Bound, error) {
	lo, hi := 0, len(bounds)
	for lo < hi {
		mid := (lo + hi) / 2
		b := bounds[mid]
		switch {
		case offset < b.GlobalStart:
			hi = mid
		case offset >= b.End():
			lo = mid + 1
		default:
			return &bounds[mid], nil
		}
	}
	return nil, &NotWithinBoundsError{Offset: offset}
}
