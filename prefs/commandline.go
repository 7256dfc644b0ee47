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

package prefs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// preference values specified on the command line. values are removed as they
// are used by Disk.Load()
var commandLine struct {
	crit   sync.Mutex
	values map[string]string
}

// SetCommandLine parses a string of preference values and keeps them until
// they are used by a call to Disk.Load(). The format of the string is:
//
//	key::value; key::value
//
// Badly formed entries are ignored. Any values remaining from an earlier call
// are forgotten.
func SetCommandLine(prefs string) {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	commandLine.values = make(map[string]string)
	for _, p := range strings.Split(prefs, ";") {
		kv := strings.Split(p, "::")
		if len(kv) == 2 {
			commandLine.values[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
}

// UnusedCommandLine returns the preference values given to SetCommandLine()
// that have not been used. The string is in the same format as the string
// given to SetCommandLine(), with the keys sorted.
func UnusedCommandLine() string {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	keys := make([]string, 0, len(commandLine.values))
	for k := range commandLine.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := make([]string, 0, len(keys))
	for _, k := range keys {
		s = append(s, fmt.Sprintf("%s::%s", k, commandLine.values[k]))
	}
	return strings.Join(s, "; ")
}

// commandLinePref returns the value for key if it was specified on the
// command line. the value is forgotten once it has been returned.
func commandLinePref(key string) (string, bool) {
	commandLine.crit.Lock()
	defer commandLine.crit.Unlock()

	v, ok := commandLine.values[key]
	if ok {
		delete(commandLine.values, key)
	}
	return v, ok
}
