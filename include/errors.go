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

import "fmt"

// IOError wraps a failure to open or read a source file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseErr wraps a failure converting between a line number and a
// byte offset, as surfaced by the offsetcol package.
type ParseErr struct {
	Path string
	Err  error
}

func (e *ParseErr) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *ParseErr) Unwrap() error { return e.Err }

// NoBoundReturnedError reports that recursively flattening an
// included file produced zero bounds, which should be impossible for
// a well-formed, non-empty include target.
type NoBoundReturnedError struct {
	Path string
}

func (e *NoBoundReturnedError) Error() string {
	return fmt.Sprintf("no bounds returned while flattening %s", e.Path)
}

// LinemarkerInDtsiError reports that a CPP linemarker was found
// inside a region entered via a DTS `/include/` directive. This
// should never happen in well-formed input; the file found needs to
// be cleaned up.
type LinemarkerInDtsiError struct {
	Path string
}

func (e *LinemarkerInDtsiError) Error() string {
	return fmt.Sprintf("linemarker found within DTS-included file %s", e.Path)
}

// NotWithinBoundsError is the sole recoverable error: it is returned
// by lookup queries when no bound covers the requested offset. It
// never aborts a Flatten call.
type NotWithinBoundsError struct {
	Offset int
}

func (e *NotWithinBoundsError) Error() string {
	return fmt.Sprintf("offset %d is not within any bound", e.Offset)
}
