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

// Package comparison runs the two capture pipelines of a comparison
// concurrently and feeds their output to the comparator.
//
// Each pipeline opens its source, decodes the stream and passes the events
// through the quirk filter. The pipelines run in their own goroutines and
// share no state. Events are handed to the comparator through buffered
// channels, so neither player is stalled for longer than it takes the
// comparator to catch up.
//
// A failure in either pipeline cancels the other, which kills the sibling
// player process. Run() does not return until both pipelines have finished
// and both player processes have been waited for. When the comparator reaches
// a verdict before the end of the traces, both pipelines are stopped and the
// verdict is returned. Stopping the pipelines in that case is not an error.
package comparison
