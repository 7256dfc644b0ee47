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

package tracker

import (
	"fmt"
	"math"
)

// LookupDuty returns the duty cycle of a square channel as a percentage.
func LookupDuty(duty uint8) string {
	switch duty & 0x03 {
	case 0:
		return "12.5%"
	case 1:
		return "25%"
	case 2:
		return "50%"
	}
	return "75%"
}

// LookupOutputLevel returns the output level of the wave channel.
func LookupOutputLevel(level uint8) string {
	switch level & 0x03 {
	case 0:
		return "mute"
	case 1:
		return "100%"
	case 2:
		return "50%"
	}
	return "25%"
}

// MusicalNote is the name of the note nearest to a frequency. For example,
// "A4" or "C#5".
type MusicalNote string

// NoMusicalNote is used when there is no meaningful note for a channel.
const NoMusicalNote = MusicalNote("-")

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// the range of frequencies that are given a note name
const (
	minNoteHz = 16.0
	maxNoteHz = 20000.0
)

// LookupMusicalNote returns the nearest note in twelve tone equal temperament
// to the frequency, with A4 tuned to 440Hz.
func LookupMusicalNote(hz float64) MusicalNote {
	if hz < minNoteHz || hz > maxNoteHz || math.IsNaN(hz) {
		return NoMusicalNote
	}

	// MIDI note number
	n := int(math.Round(12*math.Log2(hz/440.0))) + 69

	return MusicalNote(fmt.Sprintf("%s%d", noteNames[n%12], n/12-1))
}

// SquareFrequency returns the frequency of the square channels for an eleven
// bit period value.
func SquareFrequency(period uint16) float64 {
	return 131072.0 / float64(2048-int(period&0x7ff))
}

// WaveFrequency returns the frequency of the wave channel for an eleven bit
// period value. One cycle is the full 32 sample wave pattern.
func WaveFrequency(period uint16) float64 {
	return 65536.0 / float64(2048-int(period&0x7ff))
}

// NoiseFrequency returns the rate at which the noise channel's shift register
// is clocked.
func NoiseFrequency(shift uint8, divisor uint8) float64 {
	d := float64(divisor & 0x07)
	if d == 0 {
		d = 0.5
	}
	return 262144.0 / (d * float64(uint32(1)<<(shift&0x0f)))
}
