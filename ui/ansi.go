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

package ui

import (
	"fmt"
	"strings"
)

const (
	colBlack   = 0
	colRed     = 1
	colGreen   = 2
	colYellow  = 3
	colBlue    = 4
	colMagenta = 5
	colCyan    = 6
	colWhite   = 7
	colDefault = 9
)

const (
	targetPen         = 3
	targetPaper       = 4
	targetBrightPen   = 9
	targetBrightPaper = 10
)

const (
	attrBold      = 1
	attrUnderline = 4
	attrInverse   = 7
	attrStrike    = 8
)

// NormalPen resets all colours and attributes.
const NormalPen = "\033[0m"

// ClearLine clears the current line of the terminal. The cursor is not moved.
const ClearLine = "\033[2K"

func colour(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("ui: no colour")
	}
	switch strings.ToUpper(name)[0] {
	case 'K':
		return colBlack, nil
	case 'R':
		return colRed, nil
	case 'G':
		return colGreen, nil
	case 'Y':
		return colYellow, nil
	case 'B':
		return colBlue, nil
	case 'M':
		return colMagenta, nil
	case 'C':
		return colCyan, nil
	case 'W':
		return colWhite, nil
	case 'D', 'N':
		return colDefault, nil
	}
	return 0, fmt.Errorf("ui: unknown colour %q", name)
}

// ColorBuild creates the ANSI sequence for the pen and paper colours and the
// attribute. Empty strings leave the corresponding setting unchanged.
func ColorBuild(pen, paper, attribute string, brightPen, brightPaper bool) (string, error) {
	var codes []string

	if pen != "" {
		c, err := colour(pen)
		if err != nil {
			return "", err
		}
		target := targetPen
		if brightPen {
			target = targetBrightPen
		}
		codes = append(codes, fmt.Sprintf("%d%d", target, c))
	}

	if paper != "" {
		c, err := colour(paper)
		if err != nil {
			return "", err
		}
		target := targetPaper
		if brightPaper {
			target = targetBrightPaper
		}
		codes = append(codes, fmt.Sprintf("%d%d", target, c))
	}

	if attribute != "" {
		switch strings.ToLower(attribute) {
		case "bold":
			codes = append(codes, fmt.Sprint(attrBold))
		case "underline":
			codes = append(codes, fmt.Sprint(attrUnderline))
		case "inverse":
			codes = append(codes, fmt.Sprint(attrInverse))
		case "strike":
			codes = append(codes, fmt.Sprint(attrStrike))
		default:
			return "", fmt.Errorf("ui: unknown attribute %q", attribute)
		}
	}

	if len(codes) == 0 {
		return NormalPen, nil
	}

	return fmt.Sprintf("\033[%sm", strings.Join(codes, ";")), nil
}

func mustBuild(pen, attribute string, bright bool) string {
	s, err := ColorBuild(pen, "", attribute, bright, false)
	if err != nil {
		panic(err)
	}
	return s
}
