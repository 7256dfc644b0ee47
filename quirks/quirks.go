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

// Package quirks marks the parts of a trace that are affected by known player
// bugs. The filter never removes or alters events. Events inside a quirk
// region are tagged so that the comparator can skip them.
package quirks

import (
	"fmt"
	"path/filepath"
	"strings"

	"gbsdiff/logger"
	"gbsdiff/trace"
)

// DefaultWindow is the number of cycles following a trigger event that are
// considered part of the quirk region. About one play routine call at the
// vblank rate.
const DefaultWindow = 17556

// Config for the quirk filter.
type Config struct {
	// a disabled filter passes events through without ever attaching a region
	Enabled bool

	// cycles after a trigger event that belong to the region
	Window uint64

	Detector Detector
}

// Mode selects whether the quirk filter is enabled.
type Mode int

// List of valid Mode values.
const (
	// enabled only for players known to have the quirk
	ModeAuto Mode = iota
	ModeOn
	ModeOff
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "AUTO"
	case ModeOn:
		return "ON"
	case ModeOff:
		return "OFF"
	}
	return "unknown"
}

// ParseMode returns the Mode for the name returned by Mode.String(). The
// comparison is case insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUTO", "":
		return ModeAuto, nil
	case "ON":
		return ModeOn, nil
	case "OFF":
		return ModeOff, nil
	}
	return ModeAuto, fmt.Errorf("quirks: unknown mode %q", s)
}

// players known to mis-resolve rst instructions
var quirkyPlayers = []string{"gbsplay"}

// Affected returns true if the player at path is known to have the rst quirk.
// The player is identified by the base name of the executable.
func Affected(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, p := range quirkyPlayers {
		if base == p {
			return true
		}
	}
	return false
}

// Enabled resolves the mode for the player at path.
func (m Mode) Enabled(path string) bool {
	switch m {
	case ModeOn:
		return true
	case ModeOff:
		return false
	}
	return Affected(path)
}

// Filter tags the events of a trace.Stream with quirk regions.
type Filter struct {
	src trace.Stream
	cfg Config

	// index of the next event
	idx int

	// the currently open region. nil if there is no open region
	region *trace.QuirkRegion

	// number of regions opened so far
	regions int
}

// New is the preferred method of initialisation for the Filter type.
func New(src trace.Stream, cfg Config) *Filter {
	return &Filter{
		src: src,
		cfg: cfg,
	}
}

// Regions returns the number of quirk regions found so far.
func (f *Filter) Regions() int {
	return f.regions
}

// Next implements the trace.AnnotatedStream interface.
func (f *Filter) Next() (trace.Annotated, error) {
	ev, err := f.src.Next()
	if err != nil {
		return trace.Annotated{}, err
	}

	a := trace.Annotated{
		RegisterEvent: ev,
		Index:         f.idx,
	}
	f.idx++

	if !f.cfg.Enabled || f.cfg.Detector == nil {
		return a, nil
	}

	// close the open region if this event is beyond its window
	if f.region != nil && ev.Timestamp > f.region.End {
		f.region = nil
	}

	if f.cfg.Detector.Trigger(ev) {
		end := ev.Timestamp + f.cfg.Window
		if end < ev.Timestamp {
			end = ^uint64(0)
		}

		if f.region == nil {
			f.region = &trace.QuirkRegion{
				Start: ev.Timestamp,
				First: a.Index,
			}
			f.regions++
			logger.Logf(logger.Allow, "quirks", "quirk region opened at event %d (%s)", a.Index, ev)
		}

		// overlapping triggers extend the open region
		if end > f.region.End {
			f.region.End = end
		}
	}

	// events get a copy of the region as it is known at the time. the open
	// region continues to change as the stream is read
	if f.region != nil {
		f.region.Last = a.Index
		r := *f.region
		a.Region = &r
	}

	return a, nil
}
