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
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gbsdiff/comparison"
	"gbsdiff/decoder"
	"gbsdiff/gbs"
	"gbsdiff/logger"
	"gbsdiff/quirks"
	"gbsdiff/recorder"
	"gbsdiff/trace"
	"gbsdiff/tracesource"

	"github.com/spf13/afero"
)

// Config specifies how the sides of a regression run are built.
type Config struct {
	// path to the player. see tracesource.NewPlayer()
	Player string

	// play duration for each track
	Duration time.Duration

	QuirkMode  quirks.Mode
	Window     uint64
	QuirkPorts []uint16

	// how the player reports the time of each write. capture files are
	// always in the delta layout
	Layout decoder.Layout
}

// Side is one of the two files being compared.
type Side struct {
	Path string

	Source  tracesource.Source
	Decoder decoder.Options
	Quirks  quirks.Config

	// number of tracks in the file
	NumTracks int

	// the file is a capture file rather than a GBS file
	Recording bool

	// the track recorded in a capture file, numbered from zero. not used for
	// GBS files
	Track int
}

func (s Side) String() string {
	return s.Path
}

// IsRecording returns true if the path names a capture file.
func IsRecording(path string) bool {
	return strings.EqualFold(filepath.Ext(path), recorder.Extension)
}

// NewSide returns the Side for the file at path.
func NewSide(fs afero.Fs, path string, cfg Config) (Side, error) {
	s := Side{Path: path}

	if IsRecording(path) {
		inf, err := recorder.ReadInfo(fs, path)
		if err != nil {
			return Side{}, fmt.Errorf("regression: %w", err)
		}
		logger.Logf(logger.Allow, "regression", "%s: capture of %s", path, inf)

		s.Recording = true
		s.Track = inf.Track
		s.Source = tracesource.Recording{Fs: fs}
		s.Decoder = recorder.DecoderOptions()
		s.NumTracks = 1

		// the player that made the recording is not known. the recording
		// will include the program counter if it was made with a player that
		// reports it
		s.Quirks = quirks.Config{
			Enabled:  cfg.QuirkMode != quirks.ModeOff,
			Window:   cfg.Window,
			Detector: detector(gbs.MinROMAddr, cfg.QuirkPorts),
		}

		return s, nil
	}

	hdr, err := gbs.Open(fs, path)
	if err != nil {
		return Side{}, fmt.Errorf("regression: %w", err)
	}
	logger.Logf(logger.Allow, "regression", "%s: %d tracks", path, hdr.NumSongs)

	player := tracesource.NewPlayer(cfg.Player)
	player.Duration = cfg.Duration
	player.NumTracks = hdr.NumSongs

	s.Source = player
	s.Decoder = decoder.Options{Layout: cfg.Layout}
	s.NumTracks = hdr.NumSongs
	s.Quirks = quirks.Config{
		Enabled:  cfg.QuirkMode.Enabled(player.Path),
		Window:   cfg.Window,
		Detector: detector(hdr.LoadAddr, cfg.QuirkPorts),
	}

	return s, nil
}

func detector(loadAddr uint16, ports []uint16) quirks.Detector {
	if len(ports) == 0 {
		return quirks.VectorDetector{LoadAddr: loadAddr}
	}
	return quirks.AnyDetector{
		quirks.VectorDetector{LoadAddr: loadAddr},
		quirks.PortDetector{Ports: ports},
	}
}

// Pipeline returns the comparison.Pipeline for a track. Tracks are numbered
// from zero.
func (s Side) Pipeline(track int) comparison.Pipeline {
	return comparison.Pipeline{
		Source:  s.Source,
		Handle:  tracesource.Handle{Path: s.Path, Track: track},
		Decoder: s.Decoder,
		Quirks:  s.Quirks,
	}
}

// ParsePorts parses a comma separated list of register ports. Ports can be
// specified as register names or as hexadecimal addresses with an optional $
// or 0x prefix.
func ParsePorts(s string) ([]uint16, error) {
	var ports []uint16

	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue // for loop
		}

		if p, ok := trace.LookupRegister(f); ok {
			ports = append(ports, p)
			continue // for loop
		}

		h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(f), "$"), "0x")
		v, err := strconv.ParseUint(h, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("regression: invalid port %q", f)
		}
		ports = append(ports, uint16(v))
	}

	return ports, nil
}
