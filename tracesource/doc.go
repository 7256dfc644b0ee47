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

// Package tracesource provides the live streams of register writes that are
// decoded and compared by the rest of gbsdiff.
//
// The Source interface is the point at which different register simulators
// can be plugged in. The Player type runs an external player as a subprocess
// and streams its standard output. The Recording type reads a trace that was
// captured earlier.
//
// Errors from a Source are classified with the sentinel errors
// ErrPlayerNotFound, ErrPlayerCrashed and ErrInvalidTrack. A player that is
// stopped because the context deadline has passed results in an error that
// wraps both ErrPlayerCrashed and ErrTimeout.
package tracesource
