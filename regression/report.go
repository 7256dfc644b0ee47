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

package regression

import (
	"fmt"
	"io"
	"strings"

	"gbsdiff/comparator"
	"gbsdiff/comparison"
	"gbsdiff/ui"
)

// Reporter prints the progress and results of a regression run.
type Reporter struct {
	output  io.Writer
	palette ui.Palette

	// include the event count and digest of each side in the result of a
	// track
	Verbose bool
}

// NewReporter is the preferred method of initialisation for the Reporter
// type.
func NewReporter(output io.Writer, palette ui.Palette) *Reporter {
	return &Reporter{
		output:  output,
		palette: palette,
	}
}

func (rep *Reporter) printf(pen string, label string, format string, args ...any) {
	if label != "" {
		fmt.Fprintf(rep.output, "%s%s:%s ", pen, label, rep.palette.Normal)
	}
	fmt.Fprintf(rep.output, format, args...)
	io.WriteString(rep.output, "\n")
}

// Warning prints a message that does not affect the result.
func (rep *Reporter) Warning(format string, args ...any) {
	rep.printf(rep.palette.Warning, "warning", format, args...)
}

// Running prints a progress line for a track. The line is replaced by the
// result when the output is a terminal.
func (rep *Reporter) Running(track int, before, after Side) {
	if rep.palette.ClearLine == "" {
		return
	}
	fmt.Fprintf(rep.output, "running: track %d of %s and %s", track+1, before, after)
}

func (rep *Reporter) clearRunning() {
	io.WriteString(rep.output, rep.palette.ClearLine)
}

// Drift prints a timing difference that was within the tolerance.
func (rep *Reporter) Drift(track int, d comparator.Drift) {
	rep.clearRunning()
	rep.printf(rep.palette.Note, "note", "track %d: %s", track+1, d)
}

// Result prints the outcome of the comparison of a track.
func (rep *Reporter) Result(track int, res comparison.Result) {
	rep.clearRunning()

	if res.Verdict == nil {
		return
	}

	if res.Verdict.Identical() {
		rep.printf(rep.palette.Succeed, "succeed", "track %d", track+1)
	} else {
		rep.printf(rep.palette.Failure, "failure", "track %d", track+1)
		d := res.Verdict.Divergence
		rep.printf("", "", "  %s at event %d/%d (frame %d)", d.Reason, d.Left, d.Right, d.Frame)
		rep.printf("", "", "  %s", d.Detail())
	}

	if rep.Verbose {
		rep.printf("", "", "  before: %d events, %d quirk regions [%s]", res.Left.Events, res.Left.Regions, res.Left.Digest)
		rep.printf("", "", "  after:  %d events, %d quirk regions [%s]", res.Right.Events, res.Right.Regions, res.Right.Digest)
		if res.Verdict.Skipped > 0 {
			rep.printf("", "", "  %d events in quirk regions were not compared", res.Verdict.Skipped)
		}
	}
}

// Error prints an operational failure for a track.
func (rep *Reporter) Error(track int, err error) {
	rep.clearRunning()
	rep.printf(rep.palette.Error, "error", "track %d: %v", track+1, err)
}

// Summary prints the summary of a regression run.
func (rep *Reporter) Summary(s Summary) {
	rep.printf(rep.palette.Heading, "regression", "%d tracks: %d identical, %d different", s.Tracks, s.Identical, s.Different)

	if len(s.Failing) > 0 {
		f := make([]string, len(s.Failing))
		for i, t := range s.Failing {
			f[i] = fmt.Sprint(t + 1)
		}
		rep.printf(rep.palette.Failure, "failing tracks", "%s", strings.Join(f, ", "))
	}
}
