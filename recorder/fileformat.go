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

package recorder

import (
	"fmt"
	"strconv"
	"strings"

	"gbsdiff/decoder"
)

// capture file format
// -------------------
//
// # gbsdiff capture
// # source: <gbs file>
// # track: <track number starting from one>
// <delta> <port>=<value> pc=<pc>
// ...
// # events: <number of events>
// # digest: <digest of events>
// end
//
// the records are in the delta layout understood by the decoder package. the
// comment lines are ignored by the decoder

// Extension is the file extension used for capture files.
const Extension = ".trace"

const magic = "gbsdiff capture"

const (
	keySource = "source"
	keyTrack  = "track"
	keyEvents = "events"
	keyDigest = "digest"
)

const keySep = ": "

// DecoderOptions returns the options required to decode a capture file.
func DecoderOptions() decoder.Options {
	return decoder.Options{
		Layout:     decoder.LayoutDelta,
		AllPorts:   true,
		RequireEnd: true,
	}
}

// Info is the information stored in the comment lines of a capture file.
type Info struct {
	Source string

	// track number starting from zero
	Track int

	Events int
	Digest string
}

func (inf Info) String() string {
	return fmt.Sprintf("%s (track %d): %d events [%s]", inf.Source, inf.Track+1, inf.Events, inf.Digest)
}

func commentLine(key string, value any) string {
	return fmt.Sprintf("# %s%s%v\n", key, keySep, value)
}

// parseComment adds the information in a comment line to the Info. the
// boolean return value is true if the line is the magic line.
func (inf *Info) parseComment(line string) (bool, error) {
	s := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	if s == magic {
		return true, nil
	}

	key, value, ok := strings.Cut(s, keySep)
	if !ok {
		return false, nil
	}

	switch key {
	case keySource:
		inf.Source = value
	case keyTrack:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return false, fmt.Errorf("recorder: invalid track %q", value)
		}
		inf.Track = n - 1
	case keyEvents:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return false, fmt.Errorf("recorder: invalid event count %q", value)
		}
		inf.Events = n
	case keyDigest:
		inf.Digest = value
	}

	return false, nil
}
