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

// Package gbs parses the header of Game Boy Sound files. Only the fields
// needed to drive playback and to detect player quirks are interpreted.
package gbs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// HeaderLen is the length of the GBS header. ROM data follows the header.
const HeaderLen = 0x70

// MinROMAddr is the lowest address at which ROM data may be loaded. The area
// below it holds the rst and interrupt vectors, which the player supplies.
const MinROMAddr = 0x0400

const (
	maxLoadAddr = 0x4000
	romEnd      = 0x8000
)

// ErrFormat is the sentinel error for all header problems.
var ErrFormat = errors.New("gbs format")

// Header is the parsed header of a GBS file.
type Header struct {
	Version      uint8
	NumSongs     int
	FirstSong    int
	LoadAddr     uint16
	InitAddr     uint16
	PlayAddr     uint16
	StackPtr     uint16
	TimerModulo  uint8
	TimerControl uint8
	Title        string
	Author       string
	Copyright    string

	// length of the ROM data following the header
	ROMLen int
}

// Parse the header of a GBS file. The data may be the entire file or just the
// header.
func Parse(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, fmt.Errorf("%w: expected at least $%02x header bytes, got only %d", ErrFormat, HeaderLen, len(data))
	}

	if !bytes.Equal(data[0:3], []byte("GBS")) {
		return Header{}, fmt.Errorf("%w: expected \"GBS\" magic, got %q", ErrFormat, data[0:3])
	}

	h := Header{
		Version:      data[3],
		NumSongs:     int(data[4]),
		FirstSong:    int(data[5]),
		LoadAddr:     binary.LittleEndian.Uint16(data[6:]),
		InitAddr:     binary.LittleEndian.Uint16(data[8:]),
		PlayAddr:     binary.LittleEndian.Uint16(data[10:]),
		StackPtr:     binary.LittleEndian.Uint16(data[12:]),
		TimerModulo:  data[14],
		TimerControl: data[15],
		Title:        field(data[0x10:0x30]),
		Author:       field(data[0x30:0x50]),
		Copyright:    field(data[0x50:0x70]),
		ROMLen:       len(data) - HeaderLen,
	}

	if h.Version != 1 {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}
	if h.NumSongs == 0 {
		return Header{}, fmt.Errorf("%w: zero songs specified", ErrFormat)
	}
	if h.LoadAddr < MinROMAddr || h.LoadAddr > maxLoadAddr {
		return Header{}, fmt.Errorf("%w: bad load address $%04x", ErrFormat, h.LoadAddr)
	}
	if h.InitAddr < h.LoadAddr || h.InitAddr >= romEnd {
		return Header{}, fmt.Errorf("%w: bad init address $%04x", ErrFormat, h.InitAddr)
	}
	if h.PlayAddr < h.LoadAddr || h.PlayAddr >= romEnd {
		return Header{}, fmt.Errorf("%w: bad play address $%04x", ErrFormat, h.PlayAddr)
	}

	return h, nil
}

// field returns a header string field with the NUL padding removed.
func field(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// Open reads and parses the header of the GBS file at path.
func Open(fs afero.Fs, path string) (Header, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Header{}, fmt.Errorf("gbs: %w", err)
	}
	h, err := Parse(data)
	if err != nil {
		return Header{}, fmt.Errorf("gbs: %s: %w", path, err)
	}
	return h, nil
}

// UseTimer returns true if the play routine is driven by the timer interrupt
// rather than by vblank.
func (h Header) UseTimer() bool {
	return h.TimerControl&0x04 != 0
}

// DoubleSpeed returns true if the CPU runs in double speed mode.
func (h Header) DoubleSpeed() bool {
	return h.TimerControl&0x80 != 0
}

// divider bit of the timer for each of the four timer clock selections
var timerDivBit = [4]uint{9, 3, 5, 7}

// CyclesPerTick returns the number of machine cycles between calls to the
// play routine.
func (h Header) CyclesPerTick() int {
	if h.UseTimer() {
		return (1 << timerDivBit[h.TimerControl&0x03]) * (256 - int(h.TimerModulo))
	}

	// 114 cycles per scanline and 154 scanlines per frame
	return 114 * 154
}

// String returns a summary of the header in the manner of the INFO mode.
func (h Header) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "title:      %s\n", h.Title)
	fmt.Fprintf(&s, "author:     %s\n", h.Author)
	fmt.Fprintf(&s, "copyright:  %s\n", h.Copyright)
	fmt.Fprintf(&s, "songs:      %d (first %d)\n", h.NumSongs, h.FirstSong)
	fmt.Fprintf(&s, "load:       $%04x\n", h.LoadAddr)
	fmt.Fprintf(&s, "init:       $%04x\n", h.InitAddr)
	fmt.Fprintf(&s, "play:       $%04x\n", h.PlayAddr)
	fmt.Fprintf(&s, "stack:      $%04x\n", h.StackPtr)
	if h.UseTimer() {
		fmt.Fprintf(&s, "driver:     timer (TMA=$%02x TAC=$%02x)\n", h.TimerModulo, h.TimerControl)
	} else {
		fmt.Fprintf(&s, "driver:     vblank\n")
	}
	fmt.Fprintf(&s, "tick:       %d cycles\n", h.CyclesPerTick())
	fmt.Fprintf(&s, "rom:        %d bytes\n", h.ROMLen)
	return s.String()
}
