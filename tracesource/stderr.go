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

package tracesource

import (
	"strings"
	"sync"
)

// the amount of the player's error output that is kept
const stderrCap = 4096

// stderrBuffer is an io.Writer that keeps the first stderrCap bytes written to
// it. it is written to by the goroutine started by the exec package.
type stderrBuffer struct {
	crit sync.Mutex
	buf  []byte
}

func (b *stderrBuffer) Write(p []byte) (int, error) {
	b.crit.Lock()
	defer b.crit.Unlock()

	remaining := stderrCap - len(b.buf)
	if remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}

	// the rest of the output is discarded without error so that the player
	// is never blocked
	return len(p), nil
}

func (b *stderrBuffer) String() string {
	b.crit.Lock()
	defer b.crit.Unlock()
	return strings.TrimSpace(string(b.buf))
}
