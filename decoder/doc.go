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

// Package decoder turns the text output of a register simulator into a stream
// of trace.RegisterEvent values.
//
// Each record occupies one line:
//
//	<tick> <port>=<value> [pc=<address>]
//
// All numbers are hexadecimal. In the delta layout, which is the layout of
// the gbsplay iodumper plugin, the tick field is the number of cycles since
// the previous write. In the absolute layout it is the cycle count since the
// start of the track.
//
// Blank lines, comment lines starting with '#' and the "subsong" header line
// are skipped. A line containing only "end" marks the end of the stream and
// no further records may follow it.
//
// Timestamps must never decrease. A trace that breaks this rule, or that
// contains a malformed record followed by more data, results in an error
// wrapping ErrMalformedTrace. A malformed fragment at the very end of the
// stream is dropped and logged because the writer was most likely stopped
// mid-line.
package decoder
