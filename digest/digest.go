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

// Package digest creates fingerprints of register traces. Two traces with the
// same digest contain the same writes at the same times. The program counter
// of a write is not part of the digest.
//
// The digest is a chain of SHA-1 values. Events are collected in a buffer and
// each time the buffer is full the digest of the buffer is placed at the start
// of the buffer, so that every new digest depends on all previous events.
package digest

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"gbsdiff/trace"
)

// size of a single event in the buffer
const eventSize = 8 + 2 + 1

// the number of events in a full buffer
const bufferEvents = 1024

// the digest of the previous buffer occupies the start of the buffer
const bufferStart = sha1.Size

const bufferLength = bufferStart + bufferEvents*eventSize

// Trace is a digest of a trace.
type Trace struct {
	digest   [sha1.Size]byte
	buffer   []byte
	bufferCt int
	events   int
}

// NewTrace is the preferred method of initialisation for the Trace type.
func NewTrace() *Trace {
	dig := &Trace{
		buffer: make([]byte, bufferLength),
	}
	dig.Reset()
	return dig
}

// Reset the digest to its initial state.
func (dig *Trace) Reset() {
	for i := range dig.digest {
		dig.digest[i] = 0
	}
	for i := range dig.buffer {
		dig.buffer[i] = 0
	}
	dig.bufferCt = bufferStart
	dig.events = 0
}

// Add an event to the digest.
func (dig *Trace) Add(ev trace.RegisterEvent) {
	b := dig.buffer[dig.bufferCt:]
	binary.LittleEndian.PutUint64(b, ev.Timestamp)
	binary.LittleEndian.PutUint16(b[8:], ev.Port)
	b[10] = ev.Value

	dig.bufferCt += eventSize
	dig.events++

	if dig.bufferCt >= bufferLength {
		dig.flush()
	}
}

func (dig *Trace) flush() {
	dig.digest = sha1.Sum(dig.buffer[:dig.bufferCt])
	copy(dig.buffer, dig.digest[:])
	dig.bufferCt = bufferStart
}

// Events returns the number of events added to the digest.
func (dig *Trace) Events() int {
	return dig.events
}

// Hash returns the digest of every event added so far.
func (dig *Trace) Hash() string {
	if dig.bufferCt == bufferStart {
		return fmt.Sprintf("%x", dig.digest)
	}
	return fmt.Sprintf("%x", sha1.Sum(dig.buffer[:dig.bufferCt]))
}

func (dig *Trace) String() string {
	return dig.Hash()
}
