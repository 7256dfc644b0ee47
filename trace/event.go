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

package trace

import (
	"fmt"
	"io"
)

// RegisterEvent is a single write to a sound chip register.
type RegisterEvent struct {
	// cycle count since the start of the track. timestamps in a trace are
	// never decreasing
	Timestamp uint64

	// address of the register
	Port uint16

	// value written to the register
	Value uint8

	// address of the instruction that made the write. the player may not
	// report it, in which case HasPC is false
	PC    uint16
	HasPC bool
}

func (ev RegisterEvent) String() string {
	if ev.HasPC {
		return fmt.Sprintf("%d: $%02x -> %s (pc=$%04x)", ev.Timestamp, ev.Value, RegisterName(ev.Port), ev.PC)
	}
	return fmt.Sprintf("%d: $%02x -> %s", ev.Timestamp, ev.Value, RegisterName(ev.Port))
}

// QuirkRegion is a span of a trace in which the player is known to behave
// unreliably. A region never removes events from the trace.
type QuirkRegion struct {
	// timestamps of the first and last event in the region. inclusive
	Start uint64
	End   uint64

	// indices of the first and last event in the region. inclusive
	First int
	Last  int
}

func (r QuirkRegion) String() string {
	return fmt.Sprintf("quirk region %d to %d (events %d to %d)", r.Start, r.End, r.First, r.Last)
}

// Annotated is a RegisterEvent as it leaves the quirk filter.
type Annotated struct {
	RegisterEvent

	// index of the event in the trace, starting at zero
	Index int

	// the quirk region the event belongs to. nil if the event is reliable
	Region *QuirkRegion
}

// Unreliable returns true if the event is inside a quirk region.
func (a Annotated) Unreliable() bool {
	return a.Region != nil
}

// Stream is a source of register events. Next() returns io.EOF at the end of
// the stream and never returns an event with a non-nil error.
type Stream interface {
	Next() (RegisterEvent, error)
}

// AnnotatedStream is a source of events that have passed through the quirk
// filter.
type AnnotatedStream interface {
	Next() (Annotated, error)
}

// SliceStream is a Stream reading from a slice of events. Useful for testing
// and for traces that have already been collected.
type SliceStream struct {
	events []RegisterEvent
	idx    int
}

// NewSliceStream is the preferred method of initialisation for the SliceStream
// type.
func NewSliceStream(events []RegisterEvent) *SliceStream {
	return &SliceStream{events: events}
}

// Next implements the Stream interface.
func (s *SliceStream) Next() (RegisterEvent, error) {
	if s.idx >= len(s.events) {
		return RegisterEvent{}, io.EOF
	}
	ev := s.events[s.idx]
	s.idx++
	return ev, nil
}

// Collect reads every event from a Stream. Reading stops at the first error
// other than io.EOF, which is returned with the events read so far.
func Collect(s Stream) ([]RegisterEvent, error) {
	var events []RegisterEvent
	for {
		ev, err := s.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
