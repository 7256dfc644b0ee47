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

// Package tracker follows the state of the sound chip through a trace of
// register writes. Changes to a channel are recorded as entries, giving a
// tracker style listing of the music.
//
// The tracker only interprets the register values. Timing of envelopes, length
// counters and frequency sweeps is left to the synth package.
package tracker

import (
	"fmt"

	"gbsdiff/trace"
)

// Channel identifies one of the four sound channels.
type Channel int

// List of valid Channel values.
const (
	Square1 Channel = iota
	Square2
	Wave
	Noise
	NumChannels
)

func (ch Channel) String() string {
	switch ch {
	case Square1:
		return "square 1"
	case Square2:
		return "square 2"
	case Wave:
		return "wave"
	case Noise:
		return "noise"
	}
	return "unknown"
}

// State is the interpretation of the registers of one channel.
type State struct {
	// the channel's DAC is on
	DAC bool

	// eleven bit period of the tone channels
	Period uint16

	// duty cycle of the square channels
	Duty uint8

	// initial volume of the envelope. for the wave channel this is the output
	// level
	Volume uint8

	EnvelopeUp   bool
	EnvelopePace uint8

	// frequency sweep of the first square channel
	SweepPace  uint8
	SweepDown  bool
	SweepShift uint8

	// the value loaded into the length counter on trigger
	Length       uint8
	LengthEnable bool

	// noise channel shift register
	NoiseShift   uint8
	NoiseShort   bool
	NoiseDivisor uint8

	// panning
	Left  bool
	Right bool
}

// Entry is a change in the state of a channel.
type Entry struct {
	Timestamp uint64
	Channel   Channel
	State     State

	// the change was caused by the channel being triggered
	Trigger bool

	Frequency   float64
	MusicalNote MusicalNote
}

func (e Entry) String() string {
	s := fmt.Sprintf("%10d %-8s %-4s vol=%-2d", e.Timestamp, e.Channel, e.MusicalNote, e.State.Volume)
	if e.Trigger {
		s = fmt.Sprintf("%s trigger", s)
	}
	return s
}

// size of the register file shadowed by the tracker
const numRegisters = int(trace.WaveRAMEnd-trace.NR10) + 1

// Tracker shadows the sound registers and records changes to each channel.
type Tracker struct {
	regs  [numRegisters]uint8
	state [NumChannels]State
	power bool

	entries []Entry

	// maximum number of entries. zero means unlimited
	max int
}

// NewTracker is the preferred method of initialisation for the Tracker type.
// If max is greater than zero only the most recent max entries are kept.
func NewTracker(max int) *Tracker {
	return &Tracker{
		entries: make([]Entry, 0, 1024),
		max:     max,
	}
}

func (tr *Tracker) reg(port uint16) uint8 {
	return tr.regs[port-trace.NR10]
}

// Register returns the most recent value written to a register. Registers
// outside the sound chip return zero.
func (tr *Tracker) Register(port uint16) uint8 {
	if port < trace.NR10 || port > trace.WaveRAMEnd {
		return 0
	}
	return tr.reg(port)
}

// Power returns true if the sound chip is switched on.
func (tr *Tracker) Power() bool {
	return tr.power
}

// State returns the current state of a channel.
func (tr *Tracker) State(ch Channel) State {
	return tr.state[ch]
}

// WaveSample returns one of the 32 four bit samples of the wave pattern.
func (tr *Tracker) WaveSample(i int) uint8 {
	b := tr.reg(trace.WaveRAM + uint16(i&0x1f)/2)
	if i&0x01 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// Entries returns a copy of the entries recorded so far.
func (tr *Tracker) Entries() []Entry {
	e := make([]Entry, len(tr.entries))
	copy(e, tr.entries)
	return e
}

// Frequency returns the frequency of the channel in its current state. For the
// noise channel this is the rate at which the shift register is clocked.
func (tr *Tracker) Frequency(ch Channel) float64 {
	s := tr.state[ch]
	switch ch {
	case Square1, Square2:
		return SquareFrequency(s.Period)
	case Wave:
		return WaveFrequency(s.Period)
	case Noise:
		return NoiseFrequency(s.NoiseShift, s.NoiseDivisor)
	}
	return 0
}

// channel returns the channel that owns a register. the boolean is false for
// the registers that are shared by all channels.
func channel(port uint16) (Channel, bool) {
	switch {
	case port >= trace.NR10 && port <= trace.NR14:
		return Square1, true
	case port >= trace.NR21 && port <= trace.NR24:
		return Square2, true
	case port >= trace.NR30 && port <= trace.NR34:
		return Wave, true
	case port >= trace.NR41 && port <= trace.NR44:
		return Noise, true
	}
	return 0, false
}

// the register that triggers each channel
var triggers = [NumChannels]uint16{trace.NR14, trace.NR24, trace.NR34, trace.NR44}

// Write a register event to the tracker. The returned Entry is valid if the
// boolean is true, meaning that the state of a channel has changed or that a
// channel was triggered.
func (tr *Tracker) Write(ev trace.RegisterEvent) (Entry, bool) {
	if ev.Port < trace.NR10 || ev.Port > trace.WaveRAMEnd {
		return Entry{}, false
	}

	if ev.Port == trace.NR52 {
		tr.power = ev.Value&0x80 == 0x80
		if !tr.power {
			// switching off the sound chip clears every register except wave RAM
			for p := trace.NR10; p <= trace.NR51; p++ {
				tr.regs[p-trace.NR10] = 0
			}
			for ch := range tr.state {
				tr.state[ch] = State{}
			}
		}
		tr.regs[ev.Port-trace.NR10] = ev.Value & 0x80
		return Entry{}, false
	}

	// writes to most registers are ignored while the power is off
	if !tr.power && (ev.Port < trace.WaveRAM || ev.Port > trace.WaveRAMEnd) {
		return Entry{}, false
	}

	tr.regs[ev.Port-trace.NR10] = ev.Value

	if ev.Port == trace.NR51 {
		// panning affects every channel but is not worth an entry
		for ch := Channel(0); ch < NumChannels; ch++ {
			tr.state[ch] = tr.decode(ch)
		}
		return Entry{}, false
	}

	ch, ok := channel(ev.Port)
	if !ok {
		return Entry{}, false
	}

	prev := tr.state[ch]
	tr.state[ch] = tr.decode(ch)
	trigger := ev.Port == triggers[ch] && ev.Value&0x80 == 0x80

	if !trigger && prev == tr.state[ch] {
		return Entry{}, false
	}

	e := Entry{
		Timestamp: ev.Timestamp,
		Channel:   ch,
		State:     tr.state[ch],
		Trigger:   trigger,
		Frequency: tr.Frequency(ch),
	}

	if ch == Noise || !e.State.DAC {
		e.MusicalNote = NoMusicalNote
	} else {
		e.MusicalNote = LookupMusicalNote(e.Frequency)
	}

	tr.entries = append(tr.entries, e)
	if tr.max > 0 && len(tr.entries) > tr.max {
		tr.entries = tr.entries[1:]
	}

	return e, true
}

// decode the registers of a channel.
func (tr *Tracker) decode(ch Channel) State {
	var s State

	nr51 := tr.reg(trace.NR51)
	s.Right = nr51&(0x01<<ch) != 0
	s.Left = nr51&(0x10<<ch) != 0

	envelope := func(v uint8) {
		s.Volume = v >> 4
		s.EnvelopeUp = v&0x08 == 0x08
		s.EnvelopePace = v & 0x07
		s.DAC = v&0xf8 != 0
	}

	period := func(lo, hi uint8) {
		s.Period = uint16(hi&0x07)<<8 | uint16(lo)
		s.LengthEnable = hi&0x40 == 0x40
	}

	switch ch {
	case Square1:
		nr10 := tr.reg(trace.NR10)
		s.SweepPace = (nr10 >> 4) & 0x07
		s.SweepDown = nr10&0x08 == 0x08
		s.SweepShift = nr10 & 0x07
		s.Duty = tr.reg(trace.NR11) >> 6
		s.Length = tr.reg(trace.NR11) & 0x3f
		envelope(tr.reg(trace.NR12))
		period(tr.reg(trace.NR13), tr.reg(trace.NR14))
	case Square2:
		s.Duty = tr.reg(trace.NR21) >> 6
		s.Length = tr.reg(trace.NR21) & 0x3f
		envelope(tr.reg(trace.NR22))
		period(tr.reg(trace.NR23), tr.reg(trace.NR24))
	case Wave:
		s.DAC = tr.reg(trace.NR30)&0x80 == 0x80
		s.Length = tr.reg(trace.NR31)
		s.Volume = (tr.reg(trace.NR32) >> 5) & 0x03
		period(tr.reg(trace.NR33), tr.reg(trace.NR34))
	case Noise:
		s.Length = tr.reg(trace.NR41) & 0x3f
		envelope(tr.reg(trace.NR42))
		nr43 := tr.reg(trace.NR43)
		s.NoiseShift = nr43 >> 4
		s.NoiseShort = nr43&0x08 == 0x08
		s.NoiseDivisor = nr43 & 0x07
		s.LengthEnable = tr.reg(trace.NR44)&0x40 == 0x40
	}

	return s
}
