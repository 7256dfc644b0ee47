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
	"time"

	"gbsdiff/comparator"
	"gbsdiff/prefs"
	"gbsdiff/quirks"
	"gbsdiff/resources"

	"github.com/spf13/afero"
)

// name of the preferences file in the resources directory
const prefsFile = "preferences"

// DefaultTimeout is the default time allowed for the comparison of a single
// track.
const DefaultTimeout = 5 * time.Minute

// Preferences for regression runs. Command line flags override preference
// values but are only saved to disk if requested.
type Preferences struct {
	dsk *prefs.Disk

	// path to the player. empty means the value of the GBSPLAY environment
	// variable or the default player
	Player prefs.String

	// timing tolerance in cycles
	Tolerance prefs.Int

	// quirk region window in cycles
	Window prefs.Int

	// AUTO, ON or OFF
	Quirks prefs.String

	// play duration for each track. zero means until the track ends
	Duration prefs.Duration

	// time allowed for each track. zero means no timeout
	Timeout prefs.Duration
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Preferences are loaded from the resources directory.
func NewPreferences(fs afero.Fs) (*Preferences, error) {
	pth, err := resources.JoinPath(fs, prefsFile)
	if err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	return newPreferences(fs, pth)
}

func newPreferences(fs afero.Fs, pth string) (*Preferences, error) {
	p := &Preferences{}
	p.SetDefaults()

	p.Tolerance.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 0 {
			return fmt.Errorf("regression: tolerance cannot be negative")
		}
		return nil
	})
	p.Window.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 0 {
			return fmt.Errorf("regression: quirk window cannot be negative")
		}
		return nil
	})
	p.Quirks.SetHookPre(func(v prefs.Value) error {
		_, err := quirks.ParseMode(v.(string))
		return err
	})

	var err error
	p.dsk, err = prefs.NewDisk(fs, pth)
	if err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}

	if err := p.dsk.Add("regression.player", &p.Player); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	if err := p.dsk.Add("regression.tolerance", &p.Tolerance); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	if err := p.dsk.Add("regression.window", &p.Window); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	if err := p.dsk.Add("regression.quirks", &p.Quirks); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	if err := p.dsk.Add("regression.duration", &p.Duration); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}
	if err := p.dsk.Add("regression.timeout", &p.Timeout); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}

	if err := p.dsk.Load(); err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}

	return p, nil
}

// SetDefaults reverts all preferences to their default values.
func (p *Preferences) SetDefaults() {
	p.Player.Set("")
	p.Tolerance.Set(int(comparator.DefaultTolerance))
	p.Window.Set(int(quirks.DefaultWindow))
	p.Quirks.Set(quirks.ModeAuto.String())
	p.Duration.Set(time.Duration(0))
	p.Timeout.Set(DefaultTimeout)
}

// Load preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save current preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// QuirkMode returns the Quirks preference as a quirks.Mode.
func (p *Preferences) QuirkMode() quirks.Mode {
	m, _ := quirks.ParseMode(p.Quirks.String())
	return m
}
