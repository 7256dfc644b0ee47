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

// Package recorder writes traces to capture files so that they can be compared
// later without the player. Capture files are read by the Recording source in
// the tracesource package.
package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"gbsdiff/decoder"
	"gbsdiff/digest"
	"gbsdiff/logger"
	"gbsdiff/trace"
	"gbsdiff/tracesource"

	"github.com/spf13/afero"
)

// Recorder writes register events to a capture file.
type Recorder struct {
	fs   afero.Fs
	path string

	output afero.File
	w      *bufio.Writer

	digest   *digest.Trace
	previous uint64
}

// New is the preferred method of initialisation for the Recorder type. The
// file at path is created or truncated.
func New(fs afero.Fs, path string, h tracesource.Handle) (*Recorder, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	rec := &Recorder{
		fs:     fs,
		path:   path,
		output: f,
		w:      bufio.NewWriter(f),
		digest: digest.NewTrace(),
	}

	fmt.Fprintf(rec.w, "# %s\n", magic)
	io.WriteString(rec.w, commentLine(keySource, h.Path))
	io.WriteString(rec.w, commentLine(keyTrack, h.Track+1))

	return rec, nil
}

// Add an event to the capture file. Events must be added in timestamp order.
func (rec *Recorder) Add(ev trace.RegisterEvent) error {
	if ev.Timestamp < rec.previous {
		return fmt.Errorf("recorder: event %s is earlier than previous event", ev)
	}

	delta := ev.Timestamp - rec.previous
	rec.previous = ev.Timestamp
	rec.digest.Add(ev)

	var err error
	if ev.HasPC {
		_, err = fmt.Fprintf(rec.w, "%08x %04x=%02x pc=%04x\n", delta, ev.Port, ev.Value, ev.PC)
	} else {
		_, err = fmt.Fprintf(rec.w, "%08x %04x=%02x\n", delta, ev.Port, ev.Value)
	}
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}

	return nil
}

// Digest returns the digest of the events added so far.
func (rec *Recorder) Digest() string {
	return rec.digest.Hash()
}

// Events returns the number of events added so far.
func (rec *Recorder) Events() int {
	return rec.digest.Events()
}

// End completes the capture file and closes it.
func (rec *Recorder) End() error {
	io.WriteString(rec.w, commentLine(keyEvents, rec.digest.Events()))
	io.WriteString(rec.w, commentLine(keyDigest, rec.digest.Hash()))
	fmt.Fprintln(rec.w, "end")

	err := rec.w.Flush()
	if err != nil {
		rec.output.Close()
		return fmt.Errorf("recorder: %w", err)
	}

	err = rec.output.Close()
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}

	logger.Logf(logger.Allow, "recorder", "%d events written to %s", rec.digest.Events(), rec.path)

	return nil
}

// Abort closes and removes an incomplete capture file.
func (rec *Recorder) Abort() error {
	return errors.Join(rec.output.Close(), rec.fs.Remove(rec.path))
}

// Capture the trace of a track to a capture file. The file is removed if the
// trace could not be read to the end.
func Capture(ctx context.Context, src tracesource.Source, h tracesource.Handle, opts decoder.Options, fs afero.Fs, path string) (Info, error) {
	r, err := src.Open(ctx, h)
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	rec, err := New(fs, path, h)
	if err != nil {
		return Info{}, err
	}

	dec := decoder.New(r, opts)
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			break // for loop
		}
		if err != nil {
			if abortErr := rec.Abort(); abortErr != nil {
				logger.Log(logger.Allow, "recorder", abortErr.Error())
			}
			return Info{}, err
		}

		err = rec.Add(ev)
		if err != nil {
			rec.Abort()
			return Info{}, err
		}
	}

	err = rec.End()
	if err != nil {
		return Info{}, err
	}

	return Info{
		Source: h.Path,
		Track:  h.Track,
		Events: rec.Events(),
		Digest: rec.Digest(),
	}, nil
}
