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

package offsetcol

import "testing"

const sample = "Howdy\nHow goes it\n\nI'm doing fine\n"

func TestLineToByteOffset(t *testing.T) {
	tests := []struct {
		line int
		want int
	}{
		{1, 0},
		{2, 6},
		{3, 18},
		{4, 19},
	}
	for _, tt := range tests {
		got, err := LineToByteOffset([]byte(sample), tt.line)
		if err != nil {
			t.Errorf("LineToByteOffset(line=%d) returned error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LineToByteOffset(line=%d) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestLineToByteOffsetOutOfRange(t *testing.T) {
	if _, err := LineToByteOffset([]byte(sample), 6); err == nil {
		t.Errorf("LineToByteOffset(line=6) on a sample with 4 newlines: want error, got nil")
	}
}

func TestLineToByteOffsetZeroOrNegative(t *testing.T) {
	for _, line := range []int{0, -1} {
		if _, err := LineToByteOffset([]byte(sample), line); err == nil {
			t.Errorf("LineToByteOffset(line=%d): want error, got nil", line)
		}
	}
}

func TestByteOffsetToLineCol(t *testing.T) {
	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{8, 2, 3},
		{18, 3, 1},
		{20, 4, 2},
	}
	for _, tt := range tests {
		line, col := ByteOffsetToLineCol([]byte(sample), tt.offset)
		if line != tt.wantLine || col != tt.wantCol {
			t.Errorf("ByteOffsetToLineCol(offset=%d) = (%d, %d), want (%d, %d)", tt.offset, line, col, tt.wantLine, tt.wantCol)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	data := []byte(sample)
	for line := 1; line <= 4; line++ {
		offset, err := LineToByteOffset(data, line)
		if err != nil {
			t.Fatalf("LineToByteOffset(line=%d): %v", line, err)
		}
		gotLine, gotCol := ByteOffsetToLineCol(data, offset)
		if gotLine != line || gotCol != 1 {
			t.Errorf("round trip for line %d landed on (%d, %d), want (%d, 1)", line, gotLine, gotCol, line)
		}
	}
}
