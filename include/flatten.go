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

// Package include implements the DTS include flattener: it expands
// `/include/ "path"` directives, interprets embedded CPP linemarkers,
// concatenates the result into a single buffer, and maintains the
// sorted, non-overlapping Bound index that maps any byte in that
// buffer back to its originating file and line/column.
package include

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/google/blueprint/pathtools"

	"android/dtsflatten/linemarker"
	"android/dtsflatten/offsetcol"
)

// maxIncludeDepth bounds recursion so a cyclic or pathological
// /include/ chain fails cleanly instead of exhausting the stack.
// Real device trees nest at most a handful of levels deep; this
// tolerates at least 64 before giving up.
const maxIncludeDepth = 256

// Option configures a Flatten call.
type Option func(*flattener)

// WithFileSystem overrides the filesystem used to read source files.
// Tests use this to supply a pathtools.MockFs instead of touching
// disk, the same seam android/soong's own path-resolution code tests
// against.
func WithFileSystem(fs pathtools.FileSystem) Option {
	return func(f *flattener) { f.fs = fs }
}

// WithIncludeDirs supplies additional directories to try, in order,
// when resolving a /include/ path that is not found relative to the
// current working directory. CWD-relative resolution remains the
// default so existing callers keep working unchanged; this only adds
// a fallback search list.
func WithIncludeDirs(dirs []string) Option {
	return func(f *flattener) { f.includeDirs = append([]string(nil), dirs...) }
}

// Flatten reads root, recursively substituting `/include/` directives
// with their target files' contents and interpreting CPP linemarkers
// embedded in the stream, and returns the concatenated output buffer
// together with the sorted Bound index describing its provenance.
func Flatten(root string, opts ...Option) ([]byte, []Bound, error) {
	f := &flattener{
		fs:    pathtools.NewOsFs("."),
		cache: map[string][]byte{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f.includeFiles(root, 0, 0)
}

// flattener holds the mutable state for a single Flatten call: the
// filesystem seam and a per-path file content cache (a file may be
// reopened several times during one call, e.g. once to splice its
// content and again to resolve a linemarker's child_start; on-disk
// content is presumed stable for that call's duration).
type flattener struct {
	fs          pathtools.FileSystem
	includeDirs []string
	cache       map[string][]byte
}

func (f *flattener) readFile(path string) ([]byte, error) {
	if data, ok := f.cache[path]; ok {
		return data, nil
	}
	rc, err := f.fs.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	f.cache[path] = data
	return data, nil
}

// resolve locates path against the working directory first and, if
// not found there, against each configured include directory in
// order (see WithIncludeDirs). It returns the path to actually open.
func (f *flattener) resolve(path string) string {
	if exists, _, _ := f.fs.Exists(path); exists {
		return path
	}
	for _, dir := range f.includeDirs {
		candidate := dir + string(os.PathSeparator) + path
		if exists, _, _ := f.fs.Exists(candidate); exists {
			return candidate
		}
	}
	return path
}

func (f *flattener) lineToByteOffsetInFile(path string, line int) (int, error) {
	data, err := f.readFile(path)
	if err != nil {
		return 0, err
	}
	off, err := offsetcol.LineToByteOffset(data, line)
	if err != nil {
		return 0, &ParseErr{Path: path, Err: err}
	}
	return off, nil
}

// includeFiles is the recursive worker behind Flatten. globalOffset is
// the byte position in the final buffer at which this invocation's
// contribution begins; depth bounds recursion.
func (f *flattener) includeFiles(path string, globalOffset, depth int) ([]byte, []Bound, error) {
	if depth > maxIncludeDepth {
		return nil, nil, &IOError{Path: path, Err: io.ErrNoProgress}
	}

	resolved := f.resolve(path)
	data, err := f.readFile(resolved)
	if err != nil {
		return nil, nil, err
	}

	var buffer []byte
	var bounds []Bound
	buf := data

	startBound, rest, ok := f.peekInitialBound(resolved, buf, globalOffset)
	if ok {
		buffer = append(buffer, buf[:len(buf)-len(rest)]...)
		buf = rest
	} else {
		startBound = Bound{
			Path:        resolved,
			GlobalStart: globalOffset,
			ChildStart:  0,
			Len:         len(data),
			Method:      DTS,
		}
	}
	bounds = append(bounds, startBound)

	for {
		pre, incPath, eaten, rem, found := findInclude(buf)
		if !found {
			break
		}

		if err := f.parseLinemarkers(pre, &bounds, globalOffset+len(buffer)); err != nil {
			return nil, nil, err
		}
		buffer = append(buffer, pre...)

		totalLen := len(buffer) + globalOffset
		subBuf, subBounds, err := f.includeFiles(incPath, totalLen, depth+1)
		if err != nil {
			return nil, nil, err
		}
		buffer = append(buffer, subBuf...)

		if len(subBounds) == 0 {
			return nil, nil, &NoBoundReturnedError{Path: incPath}
		}
		incStart := subBounds[0].GlobalStart
		incEnd := subBounds[len(subBounds)-1].End()

		bounds = SplitBounds(bounds, incStart, incEnd, eaten)
		bounds = append(bounds, subBounds...)
		sortBounds(bounds)

		buf = rem
	}

	if err := f.parseLinemarkers(buf, &bounds, globalOffset+len(buffer)); err != nil {
		return nil, nil, err
	}
	buffer = append(buffer, buf...)

	// The last bound's length is provisional until this point: a
	// straddling split (see SplitBounds) carries forward the source
	// file's remaining size, which overstates the bound once /include/
	// directives have eaten bytes that never reached the output. Pin
	// it to the true end of this invocation's contribution so Coverage
	// holds exactly.
	last := &bounds[len(bounds)-1]
	last.Len = globalOffset + len(buffer) - last.GlobalStart

	return buffer, bounds, nil
}

// peekInitialBound checks whether buf begins with a linemarker. If
// so, it returns the CPP bound that linemarker describes together
// with the remaining bytes after the marker line; ok is false if buf
// does not begin with a linemarker, in which case the caller falls
// back to a plain DTS bound for the whole file.
func (f *flattener) peekInitialBound(path string, buf []byte, globalOffset int) (bound Bound, rest []byte, ok bool) {
	pre, candidate, found := linemarker.FindStart(buf)
	if !found || len(pre) != 0 {
		// A linemarker only counts as "initial" if it is literally
		// the first thing in the file.
		return Bound{}, nil, false
	}

	marker, consumed, perr := linemarker.Parse(candidate)
	if perr != nil {
		return Bound{}, nil, false
	}

	childStart, err := f.lineToByteOffsetInFile(marker.Path, marker.ChildLine)
	if err != nil {
		// Matches the reference implementation's tolerance: if the
		// declared file cannot be read, fall back to child_start 0
		// rather than aborting the whole flatten.
		childStart = 0
	}

	markerData, err := f.readFile(marker.Path)
	length := 0
	if err == nil {
		length = len(markerData)
	}

	b := Bound{
		Path:        marker.Path,
		GlobalStart: globalOffset,
		ChildStart:  childStart,
		Len:         length,
		Method:      CPP,
	}
	return b, buf[consumed:], true
}

// parseLinemarkers walks buf locating embedded linemarkers. For each
// one found it shrinks the most recently pushed bound to end where the
// new bound begins (the bytes of the marker line itself stay
// attributed to the bound that was open when the marker was
// encountered, the same way the very first marker's line is folded
// into the initial bound) and pushes a new CPP bound describing the
// content that follows. globalOffset is the output-buffer position of
// the start of buf.
func (f *flattener) parseLinemarkers(buf []byte, bounds *[]Bound, globalOffset int) error {
	endOffset := globalOffset + len(buf)

	for {
		_, candidate, found := linemarker.FindStart(buf)
		if !found {
			return nil
		}

		marker, consumed, err := linemarker.Parse(candidate)
		if err != nil {
			// Not a real linemarker (e.g. a stray "# " in the text);
			// nothing more to find past this point in this pass.
			return nil
		}

		last := &(*bounds)[len(*bounds)-1]
		if last.Method != CPP {
			return &LinemarkerInDtsiError{Path: last.Path}
		}

		rem := candidate[consumed:]
		newStart := endOffset - len(rem)
		last.Len = newStart - last.GlobalStart

		childStart, err := f.lineToByteOffsetInFile(marker.Path, marker.ChildLine)
		if err != nil {
			childStart = 0
		}

		newBound := Bound{
			Path:        marker.Path,
			GlobalStart: newStart,
			ChildStart:  childStart,
			Len:         len(rem),
			Method:      CPP,
		}
		*bounds = append(*bounds, newBound)

		buf = rem
	}
}

// findInclude locates the first `/include/ "path"` directive in buf.
// pre is the content before the directive, incPath is the decoded
// target path, eaten is the number of source bytes the directive
// itself occupied, and rem is everything after the directive's own
// line terminator (the directive is presumed to occupy its own source
// line, so its trailing newline is consumed along with it rather than
// surfacing as a spurious blank line in the output).
func findInclude(buf []byte) (pre []byte, incPath string, eaten int, rem []byte, ok bool) {
	idx := bytes.Index(buf, []byte("/include/"))
	if idx < 0 {
		return nil, "", 0, nil, false
	}

	after := buf[idx+len("/include/"):]
	// An occurrence of the literal that is not followed by whitespace
	// and a quoted path is not a directive; keep searching past it.
	skip := func() ([]byte, string, int, []byte, bool) {
		next := idx + len("/include/")
		p, ip, e, r, found := findInclude(buf[next:])
		if !found {
			return nil, "", 0, nil, false
		}
		return buf[:next+len(p)], ip, e, r, true
	}
	i := 0
	for i < len(after) && isMultispace(after[i]) {
		i++
	}
	if i == 0 || i >= len(after) || after[i] != '"' {
		return skip()
	}

	rawBody, tail, found := linemarker.ScanQuotedBody(string(after[i+1:]))
	if !found {
		return skip()
	}
	path, err := linemarker.UnescapeCString(rawBody)
	if err != nil {
		return skip()
	}

	if n, ok := lineEnding(tail); ok {
		tail = tail[n:]
	}

	directiveEnd := len(buf) - len(tail)
	return buf[:idx], path, directiveEnd - idx, []byte(tail), true
}

func lineEnding(s string) (n int, ok bool) {
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return 2, true
	case strings.HasPrefix(s, "\n"), strings.HasPrefix(s, "\r"):
		return 1, true
	default:
		return 0, false
	}
}

func isMultispace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
