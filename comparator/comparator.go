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

package comparator

import (
	"io"

	"gbsdiff/trace"
)

// DefaultTolerance is the largest timing difference, in cycles, that is not
// considered a divergence.
const DefaultTolerance = 100

// DefaultFrameBoundary is the number of cycles between two writes that is
// taken to mean a new call of the play routine.
const DefaultFrameBoundary = 0x8000

// Options for Compare().
type Options struct {
	Tolerance     uint64
	FrameBoundary uint64

	// called for every pair of events with a non-zero timing difference that
	// is within the tolerance. may be nil
	OnDrift func(Drift)
}

// DefaultOptions returns the Options with the default values.
func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		FrameBoundary: DefaultFrameBoundary,
	}
}

// side keeps track of one of the two streams being compared.
type side struct {
	stream trace.AnnotatedStream

	// number of events read
	count int

	frame    int
	previous uint64
}

// next returns the next event from the stream. ok is false at the end of the
// stream.
func (s *side) next(boundary uint64) (ev trace.Annotated, ok bool, err error) {
	ev, err = s.stream.Next()
	if err == io.EOF {
		return trace.Annotated{}, false, nil
	}
	if err != nil {
		return trace.Annotated{}, false, err
	}

	if s.count > 0 && boundary > 0 && ev.Timestamp-s.previous >= boundary {
		s.frame++
	}
	s.previous = ev.Timestamp
	s.count++

	return ev, true, nil
}

// Compare two annotated streams. An error from either stream ends the
// comparison and no verdict is returned.
func Compare(left, right trace.AnnotatedStream, opts Options) (Verdict, error) {
	var v Verdict

	l := &side{stream: left}
	r := &side{stream: right}

	for {
		le, lok, err := l.next(opts.FrameBoundary)
		if err != nil {
			return Verdict{}, err
		}
		re, rok, err := r.next(opts.FrameBoundary)
		if err != nil {
			return Verdict{}, err
		}

		switch {
		case !lok && !rok:
			return v, nil
		case !lok:
			return remainder(v, r, re, false, opts)
		case !rok:
			return remainder(v, l, le, true, opts)
		}

		v.Pairs++

		if le.Unreliable() || re.Unreliable() {
			if le.Unreliable() {
				v.Skipped++
			}
			if re.Unreliable() {
				v.Skipped++
			}
			continue // for loop
		}

		var reason Reason
		switch {
		case le.Port != re.Port:
			reason = PortMismatch
		case le.Value != re.Value:
			reason = ValueMismatch
		case diff(le.Timestamp, re.Timestamp) > opts.Tolerance:
			reason = TimingMismatch
		default:
			if opts.OnDrift != nil && le.Timestamp != re.Timestamp {
				opts.OnDrift(Drift{
					Index: le.Index,
					Frame: l.frame,
					Left:  le.RegisterEvent,
					Right: re.RegisterEvent,
				})
			}
			continue // for loop
		}

		lev := le.RegisterEvent
		rev := re.RegisterEvent
		v.Divergence = &DivergencePoint{
			Left:       le.Index,
			Right:      re.Index,
			Reason:     reason,
			LeftEvent:  &lev,
			RightEvent: &rev,
			Frame:      l.frame,
		}
		return v, nil
	}
}

// remainder drains the longer stream after the other has been exhausted. ev
// is the first event of the remainder, which has already been read.
func remainder(v Verdict, longer *side, ev trace.Annotated, isLeft bool, opts Options) (Verdict, error) {
	// the length of the exhausted stream
	exhausted := longer.count - 1

	for {
		if !ev.Unreliable() {
			e := ev.RegisterEvent
			d := &DivergencePoint{
				Reason: LengthMismatch,
				Frame:  longer.frame,
			}
			if isLeft {
				d.Left = ev.Index
				d.Right = exhausted
				d.LeftEvent = &e
			} else {
				d.Left = exhausted
				d.Right = ev.Index
				d.RightEvent = &e
			}
			v.Divergence = d
			return v, nil
		}

		v.Skipped++

		var ok bool
		var err error
		ev, ok, err = longer.next(opts.FrameBoundary)
		if err != nil {
			return Verdict{}, err
		}
		if !ok {
			return v, nil
		}
	}
}

func diff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
