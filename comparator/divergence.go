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
	"fmt"

	"gbsdiff/trace"
)

// Reason describes why two traces diverge.
type Reason int

// List of valid Reason values.
const (
	TimingMismatch Reason = iota
	PortMismatch
	ValueMismatch
	LengthMismatch
)

func (r Reason) String() string {
	switch r {
	case TimingMismatch:
		return "timing mismatch"
	case PortMismatch:
		return "port mismatch"
	case ValueMismatch:
		return "value mismatch"
	case LengthMismatch:
		return "length mismatch"
	}
	return "unknown"
}

// DivergencePoint is the location of the first difference between two traces.
type DivergencePoint struct {
	// index of the event in each trace. for a length mismatch the index of
	// the exhausted trace is its length
	Left  int
	Right int

	Reason Reason

	// the events at the divergence. one of the events will be nil for a
	// length mismatch
	LeftEvent  *trace.RegisterEvent
	RightEvent *trace.RegisterEvent

	// the number of frames that preceded the divergence
	Frame int
}

func cycles(a, b uint64) string {
	if b >= a {
		return fmt.Sprintf("%d cycles later", b-a)
	}
	return fmt.Sprintf("%d cycles earlier", a-b)
}

// Detail describes the divergence in terms of register writes.
func (d DivergencePoint) Detail() string {
	l := d.LeftEvent
	r := d.RightEvent

	switch d.Reason {
	case LengthMismatch:
		if r == nil && l != nil {
			return fmt.Sprintf("missing write of $%02x to %s", l.Value, trace.RegisterName(l.Port))
		}
		if l == nil && r != nil {
			return fmt.Sprintf("new write of $%02x to %s", r.Value, trace.RegisterName(r.Port))
		}
	case PortMismatch:
		if l != nil && r != nil {
			if l.Value == r.Value {
				return fmt.Sprintf("write of $%02x to %s is written to %s instead", l.Value, trace.RegisterName(l.Port), trace.RegisterName(r.Port))
			}
			return fmt.Sprintf("write of $%02x to %s is now a write of $%02x to %s", l.Value, trace.RegisterName(l.Port), r.Value, trace.RegisterName(r.Port))
		}
	case ValueMismatch:
		if l != nil && r != nil {
			return fmt.Sprintf("write of $%02x to %s now writes $%02x", l.Value, trace.RegisterName(l.Port), r.Value)
		}
	case TimingMismatch:
		if l != nil && r != nil {
			return fmt.Sprintf("write of $%02x to %s occurs %s", l.Value, trace.RegisterName(l.Port), cycles(l.Timestamp, r.Timestamp))
		}
	}
	return d.Reason.String()
}

func (d DivergencePoint) String() string {
	return fmt.Sprintf("%s at event %d/%d (frame %d): %s", d.Reason, d.Left, d.Right, d.Frame, d.Detail())
}

// Drift is a timing difference that is within the tolerance.
type Drift struct {
	Index int
	Frame int
	Left  trace.RegisterEvent
	Right trace.RegisterEvent
}

func (d Drift) String() string {
	return fmt.Sprintf("write of $%02x to %s occurs %s (event %d, frame %d)",
		d.Left.Value, trace.RegisterName(d.Left.Port), cycles(d.Left.Timestamp, d.Right.Timestamp), d.Index, d.Frame)
}

// Verdict is the result of a comparison.
type Verdict struct {
	// nil if the traces are identical
	Divergence *DivergencePoint

	// number of event pairs compared, including skipped pairs
	Pairs int

	// number of events skipped because they were in a quirk region. this
	// counts events from both traces
	Skipped int
}

// Identical returns true if no divergence was found.
func (v Verdict) Identical() bool {
	return v.Divergence == nil
}

func (v Verdict) String() string {
	if v.Identical() {
		return "identical"
	}
	return fmt.Sprintf("different: %s", v.Divergence)
}
