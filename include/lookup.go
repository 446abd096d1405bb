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
	"io/ioutil"

	"github.com/google/blueprint/pathtools"

	"android/dtsflatten/offsetcol"
)

// FileLineFromGlobal maps offset, a byte position in buffer (the
// output of Flatten), back to the (file, line, column) it originated
// from. fs is used to re-open the bound's source file; it should be
// the same filesystem Flatten was given via WithFileSystem, or the
// default OS filesystem if none was supplied.
//
// For a DTS bound the mapping is a direct offset translation into the
// source file. For a CPP bound, direct arithmetic is unsafe because
// the preprocessor may have elided whitespace, so a three-point
// heuristic is used instead: it compares the target offset's position
// against the bound's start, both measured in the flattened output,
// and reconciles that against the bound's child_start in the source
// file.
func FileLineFromGlobal(fs pathtools.FileSystem, bounds []Bound, buffer []byte, offset int) (path string, line, col int, err error) {
	b, err := BoundsContainingOffset(bounds, offset)
	if err != nil {
		return "", 0, 0, err
	}

	fileData, ferr := readFileBytes(fs, b.Path)
	if ferr != nil {
		return "", 0, 0, ferr
	}

	if b.Method == DTS {
		line, col = offsetcol.ByteOffsetToLineCol(fileData, (offset-b.GlobalStart)+b.ChildStart)
		return b.Path, line, col, nil
	}

	gLine, gCol := offsetcol.ByteOffsetToLineCol(buffer, offset)
	sLine, sCol := offsetcol.ByteOffsetToLineCol(buffer, b.GlobalStart)
	cLine, cCol := offsetcol.ByteOffsetToLineCol(fileData, b.ChildStart)

	line = gLine - sLine + cLine
	if gLine == sLine {
		col = gCol - sCol - cCol + 2
	} else {
		col = gCol - cCol + 1
	}
	return b.Path, line, col, nil
}

func readFileBytes(fs pathtools.FileSystem, path string) ([]byte, error) {
	rc, err := fs.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer rc.Close()

	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return data, nil
}
