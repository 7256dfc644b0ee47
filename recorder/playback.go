// This file is part of gbsdiff.
//
// gbsdiff is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gbsdiff is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gbsdiff.  If not, see <https://www.gnu.org/licenses/>.

package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"gbsdiff/decoder"
	"gbsdiff/digest"

	"github.com/spf13/afero"
)

// ErrNotCapture is returned by ReadInfo() if the file is not a capture file.
var ErrNotCapture = errors.New("not a capture file")

// ErrDigestMismatch is returned by Verify() if the events in the capture file
// do not match the digest recorded with them.
var ErrDigestMismatch = errors.New("digest mismatch")

// ReadInfo returns the information in the comment lines of a capture file.
func ReadInfo(fs afero.Fs, path string) (Info, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("recorder: %w", err)
	}
	defer f.Close()

	var inf Info
	var isCapture bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "#") {
			continue // for loop
		}
		m, err := inf.parseComment(line)
		if err != nil {
			return Info{}, err
		}
		isCapture = isCapture || m
	}
	if err := scanner.Err(); err != nil {
		return Info{}, fmt.Errorf("recorder: %w", err)
	}

	if !isCapture {
		return Info{}, fmt.Errorf("recorder: %s: %w", path, ErrNotCapture)
	}

	return inf, nil
}

// Verify that the events in a capture file match the recorded digest.
func Verify(fs afero.Fs, path string) (Info, error) {
	inf, err := ReadInfo(fs, path)
	if err != nil {
		return Info{}, err
	}

	f, err := fs.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("recorder: %w", err)
	}
	defer f.Close()

	dig := digest.NewTrace()
	dec := decoder.New(f, DecoderOptions())
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break // for loop
		}
		if err != nil {
			return Info{}, fmt.Errorf("recorder: %s: %w", path, err)
		}
		dig.Add(ev)
	}

	if dig.Events() != inf.Events || dig.Hash() != inf.Digest {
		return Info{}, fmt.Errorf("recorder: %s: %w", path, ErrDigestMismatch)
	}

	return inf, nil
}
