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

// Package trace defines the types shared by every stage of the capture and
// comparison pipeline.
//
// A RegisterEvent is a single write to a sound chip register, as reported by
// the player. Events are produced by a Stream, which is pulled one event at a
// time with Next() until io.EOF. Streams are single-pass and are never
// buffered in full.
//
// After quirk filtering, events are wrapped in the Annotated type. An
// Annotated event may be attached to a QuirkRegion, in which case its port,
// value and timing are not reliable and comparisons should not depend on
// them.
package trace
