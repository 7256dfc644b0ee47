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

// Package fakeplayer stands in for gbsplay in tests. The test binary is run as
// the player process, so tests do not depend on gbsplay being installed.
//
// Test packages that use the fake player must call Run() at the start of
// TestMain():
//
//	func TestMain(m *testing.M) {
//		fakeplayer.Run()
//		os.Exit(m.Run())
//	}
//
// Run() returns immediately unless the process was started by a Player
// returned by New(), in which case it behaves like the player and exits.
//
// In the "play" mode the fake player runs a tiny subset of the SM83
// instruction set from the init address of the GBS file. The a register holds
// the song number, counted from zero, when the init routine is called:
//
//	$00        nop            4 cycles
//	$3e nn     ld a,nn        8 cycles
//	$e0 nn     ldh (nn),a     12 cycles, write reported
//	$76        halt           wait for the next frame
//	$ff        rst $38        reported as a bogus write from the vector area
//	$c9        ret            end of track
//
// Any other byte is treated as a one byte, four cycle instruction.
package fakeplayer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"gbsdiff/gbs"
	"gbsdiff/tracesource"
)

// the environment variable that selects the behaviour of the fake player
const modeEnv = "GBSDIFF_FAKE_PLAYER"

// Modes of the fake player.
const (
	// play the GBS file
	Play = "play"

	// write some output and then exit with a non-zero status
	Crash = "crash"

	// write some output and then wait forever
	Hang = "hang"

	// write a malformed record in the middle of the output
	Garbage = "garbage"
)

// cycles between frames when the play routine halts
const frameCycles = 0x9000

// New returns a tracesource.Player that runs the test binary in the specified
// mode.
func New(mode string) *tracesource.Player {
	return &tracesource.Player{
		Path: os.Args[0],
		Env:  []string{fmt.Sprintf("%s=%s", modeEnv, mode)},
	}
}

// Run behaves as the player if the process was started by New(). It does
// not return in that case.
func Run() {
	mode := os.Getenv(modeEnv)
	if mode == "" {
		return
	}
	os.Exit(run(mode, os.Args[1:]))
}

func run(mode string, args []string) int {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	switch mode {
	case Crash:
		fmt.Fprintf(out, "%08x %04x=%02x\n", 0, 0xff26, 0x80)
		out.Flush()
		fmt.Fprintln(os.Stderr, "Segmentation fault")
		return 139
	case Hang:
		fmt.Fprintf(out, "%08x %04x=%02x\n", 0, 0xff26, 0x80)
		out.Flush()
		time.Sleep(time.Hour)
		return 0
	case Garbage:
		fmt.Fprintf(out, "%08x %04x=%02x\n", 0, 0xff26, 0x80)
		fmt.Fprintln(out, "this is not a register write")
		fmt.Fprintf(out, "%08x %04x=%02x\n", 4, 0xff24, 0x77)
		return 0
	}

	file, track, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open %s: %v\n", file, err)
		return 1
	}

	hdr, err := gbs.Parse(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if track < 1 || track > hdr.NumSongs {
		fmt.Fprintf(os.Stderr, "Subsong number %d out of range (min=1, max=%d)\n", track, hdr.NumSongs)
		return 1
	}

	fmt.Fprintf(out, "subsong %d\n", track)
	execute(out, hdr, data[gbs.HeaderLen:], uint8(track-1))

	return 0
}

// parseArgs returns the GBS file and the track from the player arguments.
func parseArgs(args []string) (string, int, error) {
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "-f", "-g", "-t", "-T":
			i++
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) < 2 {
		return "", 0, fmt.Errorf("usage: gbsplay [options] <file> <start> <stop>")
	}

	track, err := strconv.Atoi(positional[1])
	if err != nil {
		return "", 0, fmt.Errorf("bad subsong: %w", err)
	}

	return positional[0], track, nil
}

// execute the ROM from the init address and write every register write to
// out in the iodumper format.
func execute(out *bufio.Writer, hdr gbs.Header, rom []byte, song uint8) {
	pc := int(hdr.InitAddr)
	a := song
	var delta uint64

	fetch := func() (uint8, bool) {
		i := pc - int(hdr.LoadAddr)
		if i < 0 || i >= len(rom) {
			return 0, false
		}
		pc++
		return rom[i], true
	}

	for {
		addr := pc
		op, ok := fetch()
		if !ok {
			return
		}

		switch op {
		case 0x00:
			delta += 4
		case 0x3e:
			n, ok := fetch()
			if !ok {
				return
			}
			a = n
			delta += 8
		case 0xe0:
			n, ok := fetch()
			if !ok {
				return
			}
			delta += 12
			fmt.Fprintf(out, "%08x %04x=%02x pc=%04x\n", delta, 0xff00+int(n), a, addr)
			delta = 0
		case 0x76:
			delta += frameCycles
		case 0xff:
			delta += 16
			fmt.Fprintf(out, "%08x %04x=%02x pc=%04x\n", delta, 0xff12, 0xff, 0x0038)
			delta = 0
		case 0xc9:
			return
		default:
			delta += 4
		}
	}
}
