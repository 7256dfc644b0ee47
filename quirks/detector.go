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

package quirks

import (
	"gbsdiff/trace"
)

// Detector decides whether an event is the start of a quirk region.
type Detector interface {
	Trigger(ev trace.RegisterEvent) bool
}

// VectorDetector triggers on writes made by code in the rst vector table.
//
// GBS files do not contain the vector table; it is supplied by the player.
// Some players resolve rst instructions by reading unmapped memory below the
// load address, which reads as $ff and so executes "rst $38" repeatedly.
// Writes made while the program counter is in the vector area below the load
// address are the result of this.
type VectorDetector struct {
	LoadAddr uint16
}

// the rst vector table occupies the first 64 bytes of the address space
const vectorTableEnd = 0x0040

// Trigger implements the Detector interface.
func (d VectorDetector) Trigger(ev trace.RegisterEvent) bool {
	return ev.HasPC && ev.PC < vectorTableEnd && ev.PC < d.LoadAddr
}

// PortDetector triggers on writes to any of the listed ports. Useful for
// traces that do not carry the program counter.
type PortDetector struct {
	Ports []uint16
}

// Trigger implements the Detector interface.
func (d PortDetector) Trigger(ev trace.RegisterEvent) bool {
	for _, p := range d.Ports {
		if p == ev.Port {
			return true
		}
	}
	return false
}

// AnyDetector triggers if any of its detectors triggers.
type AnyDetector []Detector

// Trigger implements the Detector interface.
func (d AnyDetector) Trigger(ev trace.RegisterEvent) bool {
	for _, dt := range d {
		if dt.Trigger(ev) {
			return true
		}
	}
	return false
}
