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

// Package prefs implements typed preference values that can be saved to and
// loaded from a preferences file.
//
// Values are added to a Disk instance with a key. The key is used to identify
// the value in the preferences file, which is a plain text file with one
// "key :: value" entry per line. More than one Disk instance can share the
// same file; saving a Disk preserves the entries it does not know about.
//
// Preference values can also be set for the duration of a single run with
// SetCommandLine(). The values given to that function take precedence over
// values in the preferences file when the Disk is loaded.
package prefs
