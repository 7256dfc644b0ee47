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

// Package ui decides how results are presented on the terminal. Colour is used
// only when the output is a terminal, unless it is forced on or off.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode selects whether output is coloured.
type ColorMode int

// List of valid ColorMode values.
const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "AUTO"
	case ColorOn:
		return "ON"
	case ColorOff:
		return "OFF"
	}
	return "unknown"
}

// ParseColorMode returns the ColorMode for the name returned by
// ColorMode.String().
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTO", "":
		return ColorAuto, nil
	case "ON":
		return ColorOn, nil
	case "OFF":
		return ColorOff, nil
	}
	return ColorAuto, fmt.Errorf("ui: unknown colour mode %q", s)
}

// IsTerminal returns true if w is a file connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Palette is the set of pens used to print results. The pens in an uncoloured
// Palette are all empty strings.
type Palette struct {
	Heading string
	Succeed string
	Failure string
	Error   string
	Warning string
	Note    string
	Normal  string

	// clears a progress line. empty if the output is not a terminal
	ClearLine string
}

// NewPalette returns the Palette for output to w.
func NewPalette(mode ColorMode, w io.Writer) Palette {
	tty := IsTerminal(w)

	var p Palette
	if tty {
		p.ClearLine = fmt.Sprintf("%s\r", ClearLine)
	}

	if mode == ColorOff || (mode == ColorAuto && !tty) {
		return p
	}

	p.Heading = mustBuild("white", "bold", true)
	p.Succeed = mustBuild("green", "bold", true)
	p.Failure = mustBuild("red", "bold", true)
	p.Error = mustBuild("red", "bold", true)
	p.Warning = mustBuild("yellow", "bold", true)
	p.Note = mustBuild("cyan", "", false)
	p.Normal = NormalPen

	return p
}

// Colored returns true if the Palette uses colour.
func (p Palette) Colored() bool {
	return p.Normal != ""
}
