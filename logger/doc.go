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

// Package logger is the logging package used throughout gbsdiff. Entries are
// made up of a tag and a detail string. By convention the tag is the name of
// the package making the entry.
//
// Most packages log to the central logger through the package level Log() and
// Logf() functions. Every log request carries a Permission; logger.Allow is
// the usual choice and Verbosity can be used when the permission depends on a
// command line flag.
//
// Identical consecutive entries are folded into one entry with a repeat
// count, so a failing loop will not flood the log.
package logger
