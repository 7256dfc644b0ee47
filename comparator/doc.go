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

// Package comparator walks two annotated traces in lockstep and finds the
// first point at which they diverge.
//
// Events at the same index are compared by port, then by value and then by
// timestamp. A timing difference no greater than the tolerance is not a
// divergence. If either event of a pair is inside a quirk region the pair is
// skipped entirely.
//
// When one trace ends before the other, the remainder of the longer trace is
// examined. If every remaining event is inside a quirk region the traces are
// still considered identical, otherwise the result is a length mismatch.
//
// Only the first divergence is reported. Comparison stops there and the
// remainder of either stream is not read.
package comparator
