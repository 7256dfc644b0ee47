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

// Package synth renders a trace of register writes as audio. The rendering is
// an approximation of the sound chip, good enough to hear what a music driver
// is doing but not cycle accurate.
//
// Register values are interpreted by a tracker.Tracker. The Synth adds the
// things that happen over time: the frame sequencer, envelopes, length
// counters, the frequency sweep and the noise shift register.
package synth

import (
	"errors"
	"fmt"
	"io"

	"gbsdiff/trace"
	"gbsdiff/tracker"
)

// ClockRate is the number of trace cycles in one second.
const ClockRate = 4194304

// SampleRate of the rendered audio.
const SampleRate = 44100

// number of cycles between each step of the frame sequencer (512Hz)
const frameSequencerCycles = ClockRate / 512

// number of samples collected before they are sent to the mixer
const bufferLength = 4096

// AudioMixer receives the rendered audio.
type AudioMixer interface {
	SetAudio(samples []int16) error
	EndMixing() error
}

var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// voice is the time dependent state of a channel.
type voice struct {
	on bool

	volume   uint8
	envTimer uint8

	length int

	period     uint16
	sweepTimer uint8

	phase float64
}

// Synth renders register writes as 16 bit mono audio.
type Synth struct {
	tr    *tracker.Tracker
	mixer AudioMixer

	voices [tracker.NumChannels]voice

	// noise channel shift register
	lfsr    uint16
	lfsrAcc float64

	// the time of the next sample and the next frame sequencer step, in cycles
	nextSample float64
	nextStep   uint64
	step       int

	buffer  []int16
	samples int
}

// New is the preferred method of initialisation for the Synth type.
func New(mixer AudioMixer) *Synth {
	return &Synth{
		tr:       tracker.NewTracker(0),
		mixer:    mixer,
		lfsr:     0x7fff,
		nextStep: frameSequencerCycles,
		buffer:   make([]int16, 0, bufferLength),
	}
}

// Tracker returns the tracker used to interpret register writes.
func (s *Synth) Tracker() *tracker.Tracker {
	return s.tr
}

// Samples returns the number of samples rendered so far.
func (s *Synth) Samples() int {
	return s.samples
}

// Write a register event. Audio is rendered up to the time of the event before
// the event is applied.
func (s *Synth) Write(ev trace.RegisterEvent) error {
	err := s.Advance(ev.Timestamp)
	if err != nil {
		return err
	}

	e, ok := s.tr.Write(ev)

	if !s.tr.Power() {
		for ch := range s.voices {
			s.voices[ch] = voice{}
		}
		return nil
	}

	if !ok {
		return nil
	}

	v := &s.voices[e.Channel]
	v.period = e.State.Period

	if !e.State.DAC {
		v.on = false
		return nil
	}

	if e.Trigger {
		s.trigger(e.Channel, e.State)
	}

	return nil
}

func (s *Synth) trigger(ch tracker.Channel, st tracker.State) {
	v := &s.voices[ch]
	v.on = true
	v.volume = st.Volume
	v.envTimer = st.EnvelopePace

	if ch == tracker.Wave {
		v.length = 256 - int(st.Length)
		v.phase = 0
	} else {
		v.length = 64 - int(st.Length)
	}

	switch ch {
	case tracker.Square1:
		v.sweepTimer = st.SweepPace
		if v.sweepTimer == 0 {
			v.sweepTimer = 8
		}
	case tracker.Noise:
		s.lfsr = 0x7fff
	}
}

// Advance renders audio up to the specified cycle.
func (s *Synth) Advance(cycle uint64) error {
	const cyclesPerSample = float64(ClockRate) / float64(SampleRate)

	for s.nextSample <= float64(cycle) {
		for float64(s.nextStep) <= s.nextSample {
			s.frameSequencer()
			s.nextStep += frameSequencerCycles
		}

		s.buffer = append(s.buffer, s.sample())
		s.samples++
		s.nextSample += cyclesPerSample

		if len(s.buffer) >= bufferLength {
			if err := s.flush(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Synth) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}
	err := s.mixer.SetAudio(s.buffer)
	s.buffer = s.buffer[:0]
	if err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	return nil
}

// End sends any remaining audio to the mixer and ends mixing. Mixing is ended
// even if the remaining audio could not be sent.
func (s *Synth) End() error {
	err := s.flush()
	if endErr := s.mixer.EndMixing(); endErr != nil && err == nil {
		err = fmt.Errorf("synth: %w", endErr)
	}
	return err
}

// frameSequencer clocks the length counters, the sweep and the envelopes.
func (s *Synth) frameSequencer() {
	step := s.step
	s.step = (s.step + 1) & 0x07

	if step&0x01 == 0 {
		for ch := range s.voices {
			v := &s.voices[ch]
			if v.on && s.tr.State(tracker.Channel(ch)).LengthEnable && v.length > 0 {
				v.length--
				if v.length == 0 {
					v.on = false
				}
			}
		}
	}

	if step == 2 || step == 6 {
		s.sweep()
	}

	if step == 7 {
		for _, ch := range []tracker.Channel{tracker.Square1, tracker.Square2, tracker.Noise} {
			v := &s.voices[ch]
			st := s.tr.State(ch)
			if !v.on || st.EnvelopePace == 0 {
				continue // for loop
			}
			v.envTimer--
			if v.envTimer > 0 {
				continue // for loop
			}
			v.envTimer = st.EnvelopePace
			if st.EnvelopeUp && v.volume < 15 {
				v.volume++
			} else if !st.EnvelopeUp && v.volume > 0 {
				v.volume--
			}
		}
	}
}

func (s *Synth) sweep() {
	v := &s.voices[tracker.Square1]
	st := s.tr.State(tracker.Square1)
	if !v.on || st.SweepPace == 0 {
		return
	}

	v.sweepTimer--
	if v.sweepTimer > 0 {
		return
	}
	v.sweepTimer = st.SweepPace

	delta := v.period >> st.SweepShift
	if st.SweepDown {
		v.period -= delta
	} else {
		v.period += delta
	}
	if v.period > 0x7ff {
		v.on = false
	}
}

// sample returns the next sample of the mixed output.
func (s *Synth) sample() int16 {
	var mix float64

	for ch := tracker.Channel(0); ch < tracker.NumChannels; ch++ {
		v := &s.voices[ch]
		st := s.tr.State(ch)
		if !v.on || !st.DAC || !(st.Left || st.Right) {
			continue // for loop
		}

		var d uint8

		switch ch {
		case tracker.Square1, tracker.Square2:
			v.phase += tracker.SquareFrequency(v.period) / SampleRate
			v.phase -= float64(int(v.phase))
			d = dutyTable[st.Duty&0x03][int(v.phase*8)&0x07] * v.volume
		case tracker.Wave:
			v.phase += tracker.WaveFrequency(v.period) / SampleRate
			v.phase -= float64(int(v.phase))
			if st.Volume > 0 {
				d = s.tr.WaveSample(int(v.phase*32)) >> (st.Volume - 1)
			}
		case tracker.Noise:
			s.lfsrAcc += tracker.NoiseFrequency(st.NoiseShift, st.NoiseDivisor) / SampleRate
			for ; s.lfsrAcc >= 1; s.lfsrAcc-- {
				s.clockLFSR(st.NoiseShort)
			}
			d = uint8(^s.lfsr&0x01) * v.volume
		}

		mix += float64(d)/7.5 - 1.0
	}

	nr50 := s.tr.Register(trace.NR50)
	master := float64(((nr50>>4)&0x07)+(nr50&0x07)+2) / 16.0

	return int16(mix / float64(tracker.NumChannels) * master * 0.8 * 32767)
}

func (s *Synth) clockLFSR(short bool) {
	x := (s.lfsr & 0x01) ^ ((s.lfsr >> 1) & 0x01)
	s.lfsr = (s.lfsr >> 1) | (x << 14)
	if short {
		s.lfsr = (s.lfsr &^ (0x01 << 6)) | (x << 6)
	}
}

// Render every event in the stream and continue for tail cycles after the
// last event. The mixer is always ended before Render returns, including when
// an error is returned.
func Render(stream trace.Stream, mixer AudioMixer, tail uint64) (*Synth, error) {
	s := New(mixer)

	if err := s.play(stream, tail); err != nil {
		if endErr := mixer.EndMixing(); endErr != nil {
			return nil, errors.Join(err, fmt.Errorf("synth: %w", endErr))
		}
		return nil, err
	}

	return s, s.End()
}

func (s *Synth) play(stream trace.Stream, tail uint64) error {
	var last uint64
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break // for loop
		}
		if err != nil {
			return err
		}
		err = s.Write(ev)
		if err != nil {
			return err
		}
		last = ev.Timestamp
	}

	return s.Advance(last + tail)
}
