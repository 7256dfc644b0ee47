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

package tracesource_test

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gbsdiff/gbs"
	"gbsdiff/test"
	"gbsdiff/tracesource"
	"gbsdiff/tracesource/fakeplayer"

	"github.com/spf13/afero"
)

func TestMain(m *testing.M) {
	fakeplayer.Run()
	os.Exit(m.Run())
}

// writeGBS creates a GBS file with two songs in a temporary directory.
func writeGBS(t *testing.T, rom []byte) string {
	t.Helper()

	data := make([]byte, gbs.HeaderLen, gbs.HeaderLen+len(rom))
	copy(data, "GBS")
	data[3] = 1
	data[4] = 2
	data[5] = 1
	binary.LittleEndian.PutUint16(data[6:], 0x0400)
	binary.LittleEndian.PutUint16(data[8:], 0x0400)
	binary.LittleEndian.PutUint16(data[10:], 0x0400)
	binary.LittleEndian.PutUint16(data[12:], 0xfffe)
	data = append(data, rom...)

	path := filepath.Join(t.TempDir(), "test.gbs")
	test.DemandSuccess(t, os.WriteFile(path, data, 0o644))
	return path
}

var rom = []byte{
	0x3e, 0x80, 0xe0, 0x26, // NR52 = $80
	0x3e, 0x77, 0xe0, 0x24, // NR50 = $77
	0x76,
	0x3e, 0xf3, 0xe0, 0x12, // NR12 = $f3
	0xc9,
}

func TestArgs(t *testing.T) {
	p := &tracesource.Player{Path: "gbsplay"}
	args := p.Args(tracesource.Handle{Path: "song.gbs", Track: 2})
	test.ExpectEquality(t, strings.Join(args, " "), "-o iodumper -f 0 -g 0 -T 0 song.gbs 3 3")

	p.Duration = 1500 * time.Millisecond
	p.Prefix = []string{"--"}
	args = p.Args(tracesource.Handle{Path: "song.gbs", Track: 0})
	test.ExpectEquality(t, strings.Join(args, " "), "-- -o iodumper -f 0 -g 0 -T 0 -t 2 song.gbs 1 1")
}

func TestNewPlayer(t *testing.T) {
	t.Setenv(tracesource.PlayerEnv, "")
	test.ExpectEquality(t, tracesource.NewPlayer("").Path, tracesource.DefaultPlayer)

	t.Setenv(tracesource.PlayerEnv, "/opt/gbsplay/bin/gbsplay")
	test.ExpectEquality(t, tracesource.NewPlayer("").Path, "/opt/gbsplay/bin/gbsplay")
	test.ExpectEquality(t, tracesource.NewPlayer("./gbsplay").Path, "./gbsplay")
}

func TestPlay(t *testing.T) {
	path := writeGBS(t, rom)

	r, err := fakeplayer.New(fakeplayer.Play).Open(context.Background(), tracesource.Handle{Path: path, Track: 0})
	test.DemandSuccess(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	test.DemandSuccess(t, err)

	expected := "subsong 1\n" +
		"00000014 ff26=80 pc=0402\n" +
		"00000014 ff24=77 pc=0406\n" +
		"00009014 ff12=f3 pc=040b\n"
	test.ExpectEquality(t, string(out), expected)
}

func TestPlayerNotFound(t *testing.T) {
	p := &tracesource.Player{Path: filepath.Join(t.TempDir(), "no-such-player")}
	_, err := p.Open(context.Background(), tracesource.Handle{Path: "song.gbs"})
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrPlayerNotFound), true)

	p = &tracesource.Player{Path: "gbsdiff-no-such-player-on-path"}
	_, err = p.Open(context.Background(), tracesource.Handle{Path: "song.gbs"})
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrPlayerNotFound), true)
}

func TestInvalidTrack(t *testing.T) {
	path := writeGBS(t, rom)

	// the number of tracks is known so the player is not started
	p := fakeplayer.New(fakeplayer.Play)
	p.NumTracks = 2
	_, err := p.Open(context.Background(), tracesource.Handle{Path: path, Track: 2})
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)

	_, err = p.Open(context.Background(), tracesource.Handle{Path: path, Track: -1})
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)

	// the number of tracks is unknown so the player reports the problem
	p.NumTracks = 0
	r, err := p.Open(context.Background(), tracesource.Handle{Path: path, Track: 5})
	test.DemandSuccess(t, err)
	defer r.Close()

	_, err = io.ReadAll(r)
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrInvalidTrack), true)
}

func TestCrash(t *testing.T) {
	path := writeGBS(t, rom)

	r, err := fakeplayer.New(fakeplayer.Crash).Open(context.Background(), tracesource.Handle{Path: path})
	test.DemandSuccess(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrPlayerCrashed), true)
	test.ExpectEquality(t, strings.Contains(err.Error(), "Segmentation fault"), true)

	// output before the crash is still delivered
	test.ExpectEquality(t, string(out), "00000000 ff26=80\n")
}

func TestTimeout(t *testing.T) {
	path := writeGBS(t, rom)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r, err := fakeplayer.New(fakeplayer.Hang).Open(ctx, tracesource.Handle{Path: path})
	test.DemandSuccess(t, err)
	defer r.Close()

	_, err = io.ReadAll(r)
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrPlayerCrashed), true)
	test.ExpectEquality(t, errors.Is(err, tracesource.ErrTimeout), true)
}

func TestCloseEarly(t *testing.T) {
	path := writeGBS(t, rom)

	r, err := fakeplayer.New(fakeplayer.Hang).Open(context.Background(), tracesource.Handle{Path: path})
	test.DemandSuccess(t, err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	test.ExpectSuccess(t, err)

	// closing kills the hanging process. this would never return otherwise
	test.ExpectSuccess(t, r.Close())
}

func TestRecording(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.DemandSuccess(t, afero.WriteFile(fs, "song.trace", []byte("0 ff26=80\nend\n"), 0o644))

	src := tracesource.Recording{Fs: fs}
	r, err := src.Open(context.Background(), tracesource.Handle{Path: "song.trace"})
	test.DemandSuccess(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, string(out), "0 ff26=80\nend\n")

	_, err = src.Open(context.Background(), tracesource.Handle{Path: "missing.trace"})
	test.ExpectFailure(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Open(ctx, tracesource.Handle{Path: "song.trace"})
	test.ExpectEquality(t, errors.Is(err, context.Canceled), true)
}

func TestHandle(t *testing.T) {
	h := tracesource.Handle{Path: "song.gbs", Track: 0}
	test.ExpectEquality(t, h.String(), "song.gbs (track 1)")
}
