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

package resources_test

import (
	"path/filepath"
	"strings"
	"testing"

	"gbsdiff/resources"
	"gbsdiff/test"

	"github.com/spf13/afero"
)

func TestPortablePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	test.DemandSuccess(t, fs.Mkdir(".gbsdiff", 0o700))

	p, err := resources.JoinPath(fs, "recordings", "tetris.trace")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p, filepath.Join(".gbsdiff", "recordings", "tetris.trace"))

	ok, err := afero.DirExists(fs, filepath.Join(".gbsdiff", "recordings"))
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)

	// the file itself is not created
	ok, err = afero.Exists(fs, p)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, false)

	// joining a path that already has the base path
	q, err := resources.JoinPath(fs, p)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, q, p)
}

func TestConfigPath(t *testing.T) {
	fs := afero.NewMemMapFs()

	p, err := resources.JoinPath(fs, "preferences")
	if err != nil {
		t.Skipf("no user config directory: %v", err)
	}
	test.ExpectEquality(t, strings.HasSuffix(p, filepath.Join("gbsdiff", "preferences")), true)
}
