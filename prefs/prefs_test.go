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

package prefs_test

import (
	"fmt"
	"testing"
	"time"

	"gbsdiff/prefs"
	"gbsdiff/test"

	"github.com/spf13/afero"
)

const prefsFile = "/gbsdiff/preferences"

func cmpFile(t *testing.T, fs afero.Fs, expected string) {
	t.Helper()

	data, err := afero.ReadFile(fs, prefsFile)
	test.DemandSuccess(t, err)

	expected = fmt.Sprintf("%s\n%s", prefs.WarningBoilerPlate, expected)
	test.ExpectEquality(t, string(data), expected)
}

func TestBool(t *testing.T) {
	fs := afero.NewMemMapFs()
	dsk, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)

	var v, w, x prefs.Bool
	test.ExpectSuccess(t, dsk.Add("test", &v))
	test.ExpectSuccess(t, dsk.Add("testB", &w))
	test.ExpectSuccess(t, dsk.Add("testC", &x))

	test.ExpectSuccess(t, v.Set(true))
	test.ExpectSuccess(t, w.Set("foo"))
	test.ExpectSuccess(t, x.Set("TRUE"))

	test.DemandSuccess(t, dsk.Save())
	cmpFile(t, fs, "test :: true\ntestB :: false\ntestC :: true\n")

	test.ExpectFailure(t, v.Set(1))
}

func TestString(t *testing.T) {
	fs := afero.NewMemMapFs()
	dsk, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)

	var v prefs.String
	test.ExpectSuccess(t, dsk.Add("player", &v))
	test.ExpectSuccess(t, v.Set("/usr/local/bin/gbsplay"))
	test.DemandSuccess(t, dsk.Save())
	cmpFile(t, fs, "player :: /usr/local/bin/gbsplay\n")
}

func TestInt(t *testing.T) {
	fs := afero.NewMemMapFs()
	dsk, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)

	var v, w prefs.Int
	test.ExpectSuccess(t, dsk.Add("number", &v))
	test.ExpectSuccess(t, dsk.Add("numberB", &w))
	test.ExpectSuccess(t, v.Set(10))
	test.ExpectSuccess(t, w.Set("99"))
	test.DemandSuccess(t, dsk.Save())
	cmpFile(t, fs, "number :: 10\nnumberB :: 99\n")

	test.ExpectFailure(t, v.Set("---"))
	test.ExpectFailure(t, v.Set(1.0))
}

func TestDuration(t *testing.T) {
	fs := afero.NewMemMapFs()
	dsk, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)

	var v prefs.Duration
	test.ExpectSuccess(t, dsk.Add("timeout", &v))
	test.ExpectSuccess(t, v.Set("1m30s"))
	test.ExpectEquality(t, v.Get().(time.Duration), 90*time.Second)
	test.DemandSuccess(t, dsk.Save())
	cmpFile(t, fs, "timeout :: 1m30s\n")

	test.ExpectFailure(t, v.Set("soon"))
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	dsk, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)

	// loading when there is no file is not an error
	var v prefs.Int
	test.ExpectSuccess(t, dsk.Add("tolerance", &v))
	test.ExpectSuccess(t, dsk.Load())
	test.ExpectEquality(t, v.Get().(int), 0)

	test.ExpectSuccess(t, v.Set(250))
	test.DemandSuccess(t, dsk.Save())
	test.ExpectSuccess(t, v.Reset())

	test.ExpectSuccess(t, dsk.Load())
	test.ExpectEquality(t, v.Get().(int), 250)
}

func TestSharedFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	dskA, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)
	var a prefs.String
	test.ExpectSuccess(t, dskA.Add("a", &a))
	test.ExpectSuccess(t, a.Set("alpha"))
	test.DemandSuccess(t, dskA.Save())

	dskB, err := prefs.NewDisk(fs, prefsFile)
	test.DemandSuccess(t, err)
	var b prefs.String
	test.ExpectSuccess(t, dskB.Add("b", &b))
	test.ExpectSuccess(t, b.Set("beta"))
	test.DemandSuccess(t, dskB.Save())

	cmpFile(t, fs, "a :: alpha\nb :: beta\n")
}

func TestAddErrors(t *testing.T) {
	dsk, err := prefs.NewDisk(afero.NewMemMapFs(), prefsFile)
	test.DemandSuccess(t, err)

	var v prefs.Bool
	test.ExpectSuccess(t, dsk.Add("key", &v))
	test.ExpectFailure(t, dsk.Add("key", &v))
	test.ExpectFailure(t, dsk.Add("bad::key", &v))

	_, err = prefs.NewDisk(afero.NewMemMapFs(), "")
	test.ExpectFailure(t, err)
}

func TestHooks(t *testing.T) {
	var v prefs.Int
	var seen int
	v.SetHookPre(func(value prefs.Value) error {
		if value.(int) < 0 {
			return fmt.Errorf("negative")
		}
		return nil
	})
	v.SetHookPost(func(value prefs.Value) error {
		seen = value.(int)
		return nil
	})

	test.ExpectSuccess(t, v.Set(5))
	test.ExpectEquality(t, seen, 5)
	test.ExpectFailure(t, v.Set(-1))
	test.ExpectEquality(t, v.Get().(int), 5)
}
