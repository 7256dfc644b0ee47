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

package quirks_test

import (
	"testing"

	"gbsdiff/quirks"
	"gbsdiff/test"
	"gbsdiff/trace"
)

func annotate(t *testing.T, events []trace.RegisterEvent, cfg quirks.Config) []trace.Annotated {
	t.Helper()

	f := quirks.New(trace.NewSliceStream(events), cfg)
	var out []trace.Annotated
	for {
		a, err := f.Next()
		if err != nil {
			break
		}
		out = append(out, a)
	}
	test.DemandEquality(t, len(out), len(events))
	return out
}

func vectorWrite(ts uint64) trace.RegisterEvent {
	return trace.RegisterEvent{Timestamp: ts, Port: trace.NR12, Value: 0xff, PC: 0x0038, HasPC: true}
}

func normalWrite(ts uint64) trace.RegisterEvent {
	return trace.RegisterEvent{Timestamp: ts, Port: trace.NR12, Value: 0xf3, PC: 0x0412, HasPC: true}
}

func TestPassThrough(t *testing.T) {
	events := []trace.RegisterEvent{normalWrite(0), vectorWrite(10), normalWrite(20)}

	out := annotate(t, events, quirks.Config{
		Enabled:  false,
		Window:   100,
		Detector: quirks.VectorDetector{LoadAddr: 0x0400},
	})
	for i, a := range out {
		test.ExpectEquality(t, a.Unreliable(), false, i)
		test.ExpectEquality(t, a.Index, i)
		test.ExpectEquality(t, a.RegisterEvent, events[i])
	}
}

func TestVectorRegion(t *testing.T) {
	events := []trace.RegisterEvent{
		normalWrite(0),
		vectorWrite(100),
		normalWrite(150),
		normalWrite(200),
		normalWrite(201),
	}

	f := quirks.New(trace.NewSliceStream(events), quirks.Config{
		Enabled:  true,
		Window:   100,
		Detector: quirks.VectorDetector{LoadAddr: 0x0400},
	})

	var out []trace.Annotated
	for range events {
		a, err := f.Next()
		test.DemandSuccess(t, err)
		out = append(out, a)
	}

	test.ExpectEquality(t, out[0].Unreliable(), false)
	test.ExpectEquality(t, out[1].Unreliable(), true)
	test.ExpectEquality(t, out[2].Unreliable(), true)

	// the window is inclusive
	test.ExpectEquality(t, out[3].Unreliable(), true)
	test.ExpectEquality(t, out[4].Unreliable(), false)

	test.ExpectEquality(t, out[3].Region.Start, uint64(100))
	test.ExpectEquality(t, out[3].Region.End, uint64(200))
	test.ExpectEquality(t, out[3].Region.First, 1)
	test.ExpectEquality(t, out[3].Region.Last, 3)
	test.ExpectEquality(t, f.Regions(), 1)
}

func TestOverlappingTriggers(t *testing.T) {
	events := []trace.RegisterEvent{
		vectorWrite(100),
		vectorWrite(180),
		normalWrite(250),
		normalWrite(281),
	}

	out := annotate(t, events, quirks.Config{
		Enabled:  true,
		Window:   100,
		Detector: quirks.VectorDetector{LoadAddr: 0x0400},
	})

	test.ExpectEquality(t, out[2].Unreliable(), true)
	test.ExpectEquality(t, out[2].Region.Start, uint64(100))
	test.ExpectEquality(t, out[2].Region.End, uint64(280))
	test.ExpectEquality(t, out[3].Unreliable(), false)
}

func TestVectorDetector(t *testing.T) {
	d := quirks.VectorDetector{LoadAddr: 0x0400}
	test.ExpectEquality(t, d.Trigger(vectorWrite(0)), true)
	test.ExpectEquality(t, d.Trigger(normalWrite(0)), false)

	// no program counter
	test.ExpectEquality(t, d.Trigger(trace.RegisterEvent{Port: trace.NR12}), false)

	// vector code supplied by the GBS file itself is not a quirk. this can't
	// happen for valid GBS files but the detector should not assume that
	d = quirks.VectorDetector{LoadAddr: 0x0000}
	test.ExpectEquality(t, d.Trigger(vectorWrite(0)), false)
}

func TestPortDetector(t *testing.T) {
	events := []trace.RegisterEvent{
		{Timestamp: 0, Port: trace.NR12, Value: 0xf3},
		{Timestamp: 10, Port: trace.NR51, Value: 0xff},
		{Timestamp: 20, Port: trace.NR12, Value: 0xf3},
		{Timestamp: 40, Port: trace.NR12, Value: 0xf3},
	}

	out := annotate(t, events, quirks.Config{
		Enabled:  true,
		Window:   10,
		Detector: quirks.AnyDetector{quirks.VectorDetector{LoadAddr: 0x400}, quirks.PortDetector{Ports: []uint16{trace.NR51}}},
	})

	test.ExpectEquality(t, out[0].Unreliable(), false)
	test.ExpectEquality(t, out[1].Unreliable(), true)
	test.ExpectEquality(t, out[2].Unreliable(), true)
	test.ExpectEquality(t, out[3].Unreliable(), false)
}

func TestMode(t *testing.T) {
	m, err := quirks.ParseMode("on")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m, quirks.ModeOn)
	test.ExpectEquality(t, m.Enabled("/usr/bin/sameboy"), true)

	m, err = quirks.ParseMode("OFF")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Enabled("/usr/bin/gbsplay"), false)

	m, err = quirks.ParseMode("AUTO")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Enabled("/usr/bin/gbsplay"), true)
	test.ExpectEquality(t, m.Enabled("gbsplay.exe"), true)
	test.ExpectEquality(t, m.Enabled("/opt/fixed-player"), false)

	_, err = quirks.ParseMode("sometimes")
	test.ExpectFailure(t, err)
}
