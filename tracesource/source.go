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

package tracesource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Sentinel errors for the Source implementations.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerCrashed  = errors.New("player crashed")
	ErrInvalidTrack   = errors.New("invalid track")
	ErrTimeout        = errors.New("timeout")
)

// Handle identifies a single track of a GBS file. Handle is a value type and
// should be treated as immutable.
type Handle struct {
	Path string

	// track number starting from zero. track numbers are shown to the user
	// starting from one
	Track int
}

func (h Handle) String() string {
	return fmt.Sprintf("%s (track %d)", h.Path, h.Track+1)
}

// Source opens a live stream of register writes for a track. The stream is
// read by a decoder and must be closed after use, even if reading it resulted
// in an error.
//
// The stream ends with io.EOF only if the track was played to completion.
type Source interface {
	Open(ctx context.Context, h Handle) (io.ReadCloser, error)
}

// Recording is a Source that reads a trace from a file. A recording holds a
// single track so the Track field of the Handle is not used.
type Recording struct {
	Fs afero.Fs
}

// Open implements the Source interface.
func (r Recording) Open(ctx context.Context, h Handle) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("tracesource: %w", err)
	}
	f, err := r.Fs.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("tracesource: recording: %w", err)
	}
	return f, nil
}
