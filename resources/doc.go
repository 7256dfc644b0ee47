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

// Package resources prepares paths for files that gbsdiff keeps between runs,
// such as the preferences file.
//
// If a directory named ".gbsdiff" exists in the current working directory
// then resources are kept there. Otherwise they are kept in a directory named
// "gbsdiff" in the user's configuration directory. On modern Linux systems
// that will be something like:
//
//	/home/user/.config/gbsdiff/
package resources
