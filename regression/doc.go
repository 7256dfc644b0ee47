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

// Package regression compares every track of two GBS files, or of a GBS file
// and a capture file, and reports the result of each comparison.
//
// The comparison of a single track is performed by the comparison package.
// This package chooses the tracks, builds the pipelines for each side from
// the user's preferences and prints the results with a Reporter.
//
// The outcome of a regression run is a Summary. A Summary is a success if
// every track compared as identical. Operational failures, such as the
// player not being found, stop the run at the first failing track and are
// returned as an error.
package regression
