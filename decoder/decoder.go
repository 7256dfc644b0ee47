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

package decoder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gbsdiff/logger"
	"gbsdiff/trace"
)

// ErrMalformedTrace is the sentinel error for all problems with the content of
// a trace.
var ErrMalformedTrace = errors.New("malformed trace")

// Layout specifies how the tick field of a record is interpreted.
type Layout int

// List of valid Layout values.
const (
	LayoutDelta Layout = iota
	LayoutAbsolute
)

func (l Layout) String() string {
	switch l {
	case LayoutDelta:
		return "delta"
	case LayoutAbsolute:
		return "absolute"
	}
	return "unknown"
}

// ParseLayout returns the Layout for the name returned by Layout.String().
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delta":
		return LayoutDelta, nil
	case "absolute":
		return LayoutAbsolute, nil
	}
	return LayoutDelta, fmt.Errorf("decoder: unknown layout %q", s)
}

// Options for the Decoder.
type Options struct {
	Layout Layout

	// include writes to ports that are not audio registers. by default they
	// are skipped, although their timing still counts in the delta layout
	AllPorts bool

	// the stream must finish with the "end" marker. a stream that ends
	// without it is considered truncated
	RequireEnd bool
}

// the line that marks the end of the stream
const endMarker = "end"

// Decoder reads register events from an io.Reader.
type Decoder struct {
	r    *bufio.Reader
	opts Options

	// number of the most recently read line
	line int

	// timestamp of the most recent record, including skipped records
	now     uint64
	started bool

	// the end marker has been seen
	ended bool

	// errors are sticky
	err error
}

// New is the preferred method of initialisation for the Decoder type.
func New(r io.Reader, opts Options) *Decoder {
	return &Decoder{
		r:    bufio.NewReader(r),
		opts: opts,
	}
}

// Line returns the number of lines read so far.
func (d *Decoder) Line() int {
	return d.line
}

func (d *Decoder) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedTrace, d.line, fmt.Sprintf(format, args...))
}

// Next implements the trace.Stream interface.
func (d *Decoder) Next() (trace.RegisterEvent, error) {
	if d.err != nil {
		return trace.RegisterEvent{}, d.err
	}

	for {
		s, readErr := d.r.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			d.err = fmt.Errorf("decoder: %w", readErr)
			return trace.RegisterEvent{}, d.err
		}

		// an unterminated line at the end of the stream
		fragment := readErr == io.EOF && s != ""

		if s == "" && readErr == io.EOF {
			if d.opts.RequireEnd && !d.ended {
				d.err = d.malformed("stream ended without %q marker", endMarker)
			} else {
				d.err = io.EOF
			}
			return trace.RegisterEvent{}, d.err
		}

		d.line++
		s = strings.TrimSpace(s)

		if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "subsong") {
			continue // for loop
		}

		if s == endMarker {
			d.ended = true
			continue // for loop
		}

		if d.ended {
			d.err = d.malformed("record after %q marker", endMarker)
			return trace.RegisterEvent{}, d.err
		}

		ev, keep, err := d.parse(s)
		if err != nil {
			if fragment && errors.Is(err, errIncomplete) {
				logger.Logf(logger.Allow, "decoder", "dropping partial record at end of stream (line %d: %q)", d.line, s)
				continue // for loop
			}
			d.err = err
			return trace.RegisterEvent{}, d.err
		}

		if keep {
			return ev, nil
		}
	}
}

// errIncomplete is wrapped by record errors that could be explained by the
// record having been cut short.
var errIncomplete = errors.New("incomplete record")

// parse a single record. the keep return value is false if the record is valid
// but should not be part of the stream.
func (d *Decoder) parse(s string) (trace.RegisterEvent, bool, error) {
	fields := strings.Fields(s)

	tick := fields[0]
	var write []string
	var pc string
	for _, f := range fields[1:] {
		if v, ok := strings.CutPrefix(f, "pc="); ok {
			pc = v
		} else {
			write = append(write, f)
		}
	}

	if len(write) == 0 {
		return trace.RegisterEvent{}, false, fmt.Errorf("%w: %w", d.malformed("expected delta and write components separated by whitespace"), errIncomplete)
	}

	port, value, ok := strings.Cut(strings.Join(write, ""), "=")
	if !ok {
		return trace.RegisterEvent{}, false, fmt.Errorf("%w: %w", d.malformed("expected write component of the form \"<port>=<value>\""), errIncomplete)
	}
	if value == "" {
		return trace.RegisterEvent{}, false, fmt.Errorf("%w: %w", d.malformed("missing value"), errIncomplete)
	}

	var ev trace.RegisterEvent

	ts, err := d.timestamp(tick)
	if err != nil {
		return ev, false, err
	}

	p, err := strconv.ParseUint(port, 16, 16)
	if err != nil {
		return ev, false, d.malformed("port is not a valid hex number: %v", err)
	}
	v, err := strconv.ParseUint(value, 16, 8)
	if err != nil {
		return ev, false, d.malformed("value is not a valid hex number: %v", err)
	}

	ev.Timestamp = ts
	ev.Port = uint16(p)
	ev.Value = uint8(v)

	if pc != "" {
		a, err := strconv.ParseUint(pc, 16, 16)
		if err != nil {
			return ev, false, d.malformed("pc is not a valid hex number: %v", err)
		}
		ev.PC = uint16(a)
		ev.HasPC = true
	}

	// the timestamp of skipped records must still count. in the delta layout
	// the next record is relative to this one
	d.now = ts
	d.started = true

	if !d.opts.AllPorts && !trace.IsAudioRegister(ev.Port) {
		return ev, false, nil
	}

	return ev, true, nil
}

// timestamp returns the absolute timestamp for the tick field of a record.
func (d *Decoder) timestamp(tick string) (uint64, error) {
	if strings.HasPrefix(tick, "-") {
		return 0, d.malformed("timestamp decreases (tick %s)", tick)
	}

	t, err := strconv.ParseUint(tick, 16, 64)
	if err != nil {
		return 0, d.malformed("tick is not a valid hex number: %v", err)
	}

	switch d.opts.Layout {
	case LayoutAbsolute:
		if d.started && t < d.now {
			return 0, d.malformed("timestamp decreases (%d after %d)", t, d.now)
		}
		return t, nil
	default:
		// a negative delta printed as an unsigned 64 bit number
		if t&(1<<63) != 0 {
			return 0, d.malformed("timestamp decreases (delta %d)", int64(t))
		}
		if d.now+t < d.now {
			return 0, d.malformed("timestamp overflow")
		}
		return d.now + t, nil
	}
}
