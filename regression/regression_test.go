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

package regression_test

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gbsdiff/comparator"
	"gbsdiff/comparison"
	"gbsdiff/decoder"
	"gbsdiff/gbs"
	"gbsdiff/quirks"
	"gbsdiff/recorder"
	"gbsdiff/regression"
	"gbsdiff/test"
	"gbsdiff/tracesource"
	"gbsdiff/tracesource/fakeplayer"
	"gbsdiff/ui"

	"github.com/spf13/afero"
)

func TestMain(m *testing.M) {
	fakeplayer.Run()
	os.Exit(m.Run())
}

var driver = []byte{
	0x3e, 0x80, 0xe0, 0x26, // NR52 = $80
	0x3e, 0x77, 0xe0, 0x24, // NR50 = $77
	0x3e, 0xff, 0xe0, 0x25, // NR51 = $ff
	0x76,
	0x3e, 0xf3, 0xe0, 0x12, // NR12 = $f3
	0x3e, 0x87, 0xe0, 0x14, // NR14 = $87
	0x76,
	0x3e, 0x00, 0xe0, 0x12, // NR12 = $00
	0xc9,
}

// songDriver writes the song number to NR13 before running the driver. every
// track of the file has a different trace
var songDriver = append([]byte{0xe0, 0x13}, driver...)

func writeGBS(t *testing.T, name string, songs int, rom []byte) string {
	t.Helper()

	data := make([]byte, gbs.HeaderLen, gbs.HeaderLen+len(rom))
	copy(data, "GBS")
	data[3] = 1
	data[4] = uint8(songs)
	data[5] = 1
	binary.LittleEndian.PutUint16(data[6:], 0x0400)
	binary.LittleEndian.PutUint16(data[8:], 0x0400)
	binary.LittleEndian.PutUint16(data[10:], 0x0400)
	binary.LittleEndian.PutUint16(data[12:], 0xfffe)
	data = append(data, rom...)

	path := filepath.Join(t.TempDir(), name)
	test.DemandSuccess(t, os.WriteFile(path, data, 0o644))
	return path
}

func side(path string, tracks int) regression.Side {
	return regression.Side{
		Path:      path,
		Source:    fakeplayer.New(fakeplayer.Play),
		NumTracks: tracks,
		Quirks: quirks.Config{
			Enabled:  true,
			Window:   quirks.DefaultWindow,
			Detector: quirks.VectorDetector{LoadAddr: 0x400},
		},
	}
}

func options() regression.Options {
	return regression.Options{
		Comparison: comparison.Options{
			Comparator: comparator.DefaultOptions(),
			Timeout:    time.Minute,
		},
	}
}

func reporter(w *test.Writer) *regression.Reporter {
	return regression.NewReporter(w, ui.NewPalette(ui.ColorOff, w))
}

func TestIdentical(t *testing.T) {
	path := writeGBS(t, "song.gbs", 2, driver)

	var w test.Writer
	s, err := regression.Regress(context.Background(), side(path, 2), side(path, 2), options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Success(), true)
	test.ExpectEquality(t, s.Tracks, 2)
	test.ExpectEquality(t, s.Identical, 2)

	test.ExpectSuccess(t, w.Compare(`succeed: track 1
succeed: track 2
regression: 2 tracks: 2 identical, 0 different
`))
}

func TestDifferent(t *testing.T) {
	changed := make([]byte, len(driver))
	copy(changed, driver)
	changed[14] = 0xa3

	before := writeGBS(t, "before.gbs", 2, driver)
	after := writeGBS(t, "after.gbs", 2, changed)

	var w test.Writer
	s, err := regression.Regress(context.Background(), side(before, 2), side(after, 2), options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Success(), false)
	test.ExpectEquality(t, s.Different, 2)
	test.ExpectEquality(t, len(s.Failing), 2)

	test.ExpectSuccess(t, w.Compare(`failure: track 1
  value mismatch at event 3/3 (frame 1)
  write of $f3 to NR12 now writes $a3
failure: track 2
  value mismatch at event 3/3 (frame 1)
  write of $f3 to NR12 now writes $a3
regression: 2 tracks: 0 identical, 2 different
failing tracks: 1, 2
`))
}

func TestTrackSelection(t *testing.T) {
	path := writeGBS(t, "song.gbs", 3, driver)

	opts := options()
	opts.Tracks = []int{1}

	var w test.Writer
	s, err := regression.Regress(context.Background(), side(path, 3), side(path, 3), opts, reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Tracks, 1)
	test.ExpectSuccess(t, w.Contains("succeed: track 2\n"))

	opts.Tracks = []int{3}
	_, err = regression.Regress(context.Background(), side(path, 3), side(path, 3), opts, reporter(&w))
	test.ExpectFailure(t, err)
}

func TestTrackCountMismatch(t *testing.T) {
	before := writeGBS(t, "before.gbs", 2, driver)
	after := writeGBS(t, "after.gbs", 1, driver)

	var w test.Writer
	s, err := regression.Regress(context.Background(), side(before, 2), side(after, 1), options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Tracks, 1)
	test.ExpectSuccess(t, w.Contains("warning: "))
	test.ExpectSuccess(t, w.Contains("has 2 tracks"))
}

func TestPedantic(t *testing.T) {
	padded := make([]byte, 0, len(driver)+4)
	padded = append(padded, driver[:4]...)
	padded = append(padded, 0x00, 0x00, 0x00, 0x00)
	padded = append(padded, driver[4:]...)

	before := writeGBS(t, "before.gbs", 1, driver)
	after := writeGBS(t, "after.gbs", 1, padded)

	opts := options()
	opts.Pedantic = true

	var w test.Writer
	s, err := regression.Regress(context.Background(), side(before, 1), side(after, 1), opts, reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Success(), true)
	test.ExpectSuccess(t, w.Contains("note: track 1: write of $77 to NR50 occurs 16 cycles later (event 1, frame 0)\n"))
}

func TestPlayerNotFound(t *testing.T) {
	path := writeGBS(t, "song.gbs", 1, driver)

	cfg := regression.Config{
		Player: filepath.Join(t.TempDir(), "gbsplay"),
		Window: quirks.DefaultWindow,
	}
	fs := afero.NewOsFs()

	before, err := regression.NewSide(fs, path, cfg)
	test.DemandSuccess(t, err)
	after, err := regression.NewSide(fs, path, cfg)
	test.DemandSuccess(t, err)

	var w test.Writer
	_, err = regression.Regress(context.Background(), before, after, options(), reporter(&w))
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrPlayerNotFound), true)
	test.ExpectSuccess(t, w.Contains("error: track 1: "))

	// there is no verdict
	test.ExpectEquality(t, w.Contains("succeed"), false)
	test.ExpectEquality(t, w.Contains("failure"), false)
	test.ExpectEquality(t, w.Contains("regression:"), false)
}

func TestNewSide(t *testing.T) {
	fs := afero.NewOsFs()
	path := writeGBS(t, "song.gbs", 4, driver)

	s, err := regression.NewSide(fs, path, regression.Config{Player: "/usr/bin/gbsplay"})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.NumTracks, 4)
	test.ExpectEquality(t, s.Recording, false)
	test.ExpectEquality(t, s.Quirks.Enabled, true)

	s, err = regression.NewSide(fs, path, regression.Config{Player: "/usr/bin/otherplayer"})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Quirks.Enabled, false)

	s, err = regression.NewSide(fs, path, regression.Config{Player: "/usr/bin/otherplayer", QuirkMode: quirks.ModeOn})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Quirks.Enabled, true)

	_, err = regression.NewSide(fs, filepath.Join(t.TempDir(), "missing.gbs"), regression.Config{})
	test.ExpectFailure(t, err)
}

func TestNewSideRecording(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.DemandSuccess(t, afero.WriteFile(fs, "song.trace", []byte("# gbsdiff capture\n# source: song.gbs\n# track: 1\n00000014 ff26=80\nend\n"), 0o644))

	s, err := regression.NewSide(fs, "song.trace", regression.Config{QuirkMode: quirks.ModeAuto})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Recording, true)
	test.ExpectEquality(t, s.NumTracks, 1)
	test.ExpectEquality(t, s.Decoder.RequireEnd, true)
	test.ExpectEquality(t, s.Quirks.Enabled, true)

	test.ExpectEquality(t, regression.IsRecording("song.TRACE"), true)
	test.ExpectEquality(t, regression.IsRecording("song.gbs"), false)
}

func TestParsePorts(t *testing.T) {
	p, err := regression.ParsePorts("NR12, $ff14,0xff25, ff26, wave RAM[2]")
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(p), 5)
	test.ExpectEquality(t, p[0], uint16(0xff12))
	test.ExpectEquality(t, p[1], uint16(0xff14))
	test.ExpectEquality(t, p[2], uint16(0xff25))
	test.ExpectEquality(t, p[3], uint16(0xff26))
	test.ExpectEquality(t, p[4], uint16(0xff32))

	_, err = regression.ParsePorts("NR99")
	test.ExpectFailure(t, err)

	p, err = regression.ParsePorts("")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(p), 0)
}

func TestRecordingTrack(t *testing.T) {
	fs := afero.NewOsFs()
	path := writeGBS(t, "song.gbs", 3, songDriver)
	capture := filepath.Join(t.TempDir(), "song.trace")

	h := tracesource.Handle{Path: path, Track: 2}
	_, err := recorder.Capture(context.Background(), fakeplayer.New(fakeplayer.Play), h, decoder.Options{}, fs, capture)
	test.DemandSuccess(t, err)

	rec, err := regression.NewSide(fs, capture, regression.Config{Window: quirks.DefaultWindow})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, rec.Recording, true)
	test.ExpectEquality(t, rec.Track, 2)

	// only the captured track is compared, whichever side the capture is on
	var w test.Writer
	s, err := regression.Regress(context.Background(), side(path, 3), rec, options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Tracks, 1)
	test.ExpectEquality(t, s.Success(), true)
	test.ExpectSuccess(t, w.Compare("succeed: track 3\nregression: 1 tracks: 1 identical, 0 different\n"))

	w.Clear()
	s, err = regression.Regress(context.Background(), rec, side(path, 3), options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Tracks, 1)
	test.ExpectEquality(t, s.Success(), true)
	test.ExpectSuccess(t, w.Compare("succeed: track 3\nregression: 1 tracks: 1 identical, 0 different\n"))

	// the captured track is selected explicitly
	opts := options()
	opts.Tracks = []int{2}
	s, err = regression.Regress(context.Background(), side(path, 3), rec, opts, reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Success(), true)

	// any other track is not in the capture
	opts.Tracks = []int{0}
	_, err = regression.Regress(context.Background(), side(path, 3), rec, opts, reporter(&w))
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)

	// the GBS file must have the captured track
	_, err = regression.Regress(context.Background(), side(path, 2), rec, options(), reporter(&w))
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)

	// the traces of the other tracks do not match the capture
	first := rec
	first.Track = 0
	w.Clear()
	s, err = regression.Regress(context.Background(), side(path, 3), first, options(), reporter(&w))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.Success(), false)
	test.ExpectSuccess(t, w.Contains("failure: track 1\n"))

	// two captures of different tracks cannot be compared
	_, err = regression.Regress(context.Background(), first, rec, options(), reporter(&w))
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)
}
