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

package main

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gbsdiff/gbs"
	"gbsdiff/test"
	"gbsdiff/tracesource"
	"gbsdiff/tracesource/fakeplayer"

	"github.com/spf13/afero"
)

func TestMain(m *testing.M) {
	fakeplayer.Run()
	os.Exit(m.Run())
}

var driver = []byte{
	0x3e, 0x80, 0xe0, 0x26, // NR52 = $80
	0x3e, 0x77, 0xe0, 0x24, // NR50 = $77
	0x3e, 0xff, 0xe0, 0x25, // NR51 = $ff
	0x76,
	0x3e, 0xf3, 0xe0, 0x12, // NR12 = $f3
	0x3e, 0x87, 0xe0, 0x14, // NR14 = $87
	0x76,
	0x3e, 0x00, 0xe0, 0x12, // NR12 = $00
	0xc9,
}

func writeGBS(t *testing.T, dir string, name string, rom []byte) string {
	t.Helper()

	data := make([]byte, gbs.HeaderLen, gbs.HeaderLen+len(rom))
	copy(data, "GBS")
	data[3] = 1
	data[4] = 1
	data[5] = 1
	binary.LittleEndian.PutUint16(data[6:], 0x0400)
	binary.LittleEndian.PutUint16(data[8:], 0x0400)
	binary.LittleEndian.PutUint16(data[10:], 0x0400)
	binary.LittleEndian.PutUint16(data[12:], 0xfffe)
	copy(data[0x10:], "Test Tune")
	data = append(data, rom...)

	path := filepath.Join(dir, name)
	test.DemandSuccess(t, os.WriteFile(path, data, 0o644))
	return path
}

// testFs reads from the real filesystem and keeps any writes in memory. the
// fake player reads the GBS files from the real filesystem
func testFs() afero.Fs {
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
}

// setEnv selects the fake player in the specified mode and moves the
// preferences file to a temporary directory
func setEnv(t *testing.T, mode string) {
	t.Helper()
	t.Setenv("GBSDIFF_FAKE_PLAYER", mode)
	t.Setenv(tracesource.PlayerEnv, os.Args[0])
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

// run the program with the fake player in the specified mode
func run(t *testing.T, mode string, args ...string) (int, string, string) {
	t.Helper()
	setEnv(t, mode)

	var stdout, stderr strings.Builder
	status := launch(context.Background(), args, &stdout, &stderr, testFs())
	return status, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	status, stdout, _ := run(t, fakeplayer.Play, "-version")
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.HasPrefix(stdout, "gbsdiff "), true)
}

func TestIdentical(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)
	after := writeGBS(t, dir, "after.gbs", driver)

	status, stdout, stderr := run(t, fakeplayer.Play, before, after)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, stdout, "succeed: track 1\nregression: 1 tracks: 1 identical, 0 different\n")
	test.ExpectEquality(t, stderr, "")

	// explicit mode selection and flags before the files
	status, _, _ = run(t, fakeplayer.Play, "COMPARE", "-track", "1", before, after)
	test.ExpectEquality(t, status, exitSuccess)

	// flags without a mode selector belong to the default mode
	status, _, _ = run(t, fakeplayer.Play, "-tolerance", "0", before, after)
	test.ExpectEquality(t, status, exitSuccess)
}

func TestDifferent(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)

	changed := append([]byte{}, driver...)
	changed[14] = 0xa3
	after := writeGBS(t, dir, "after.gbs", changed)

	status, stdout, _ := run(t, fakeplayer.Play, before, after)
	test.ExpectEquality(t, status, exitDifferent)
	test.ExpectEquality(t, strings.HasPrefix(stdout, "failure: track 1\n"), true)
	test.ExpectEquality(t, strings.Contains(stdout, "failing tracks: 1"), true)
}

func TestPlayerNotFound(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)
	after := writeGBS(t, dir, "after.gbs", driver)

	missing := filepath.Join(dir, "no-such-player")
	status, stdout, stderr := run(t, fakeplayer.Play, "-player", missing, before, after)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stdout, "succeed"), false)
	test.ExpectEquality(t, strings.Contains(stdout, "failure"), false)
	test.ExpectEquality(t, strings.Contains(stderr, "(player not found)"), true)
}

func TestPlayerCrashed(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)
	after := writeGBS(t, dir, "after.gbs", driver)

	status, _, stderr := run(t, fakeplayer.Crash, before, after)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stderr, "(player crashed)"), true)
}

func TestArguments(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)

	status, _, stderr := run(t, fakeplayer.Play, before)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stderr, "before and after files required"), true)

	status, _, _ = run(t, fakeplayer.Play, "-quirks", "SOMETIMES", before, before)
	test.ExpectEquality(t, status, exitFailure)

	status, _, _ = run(t, fakeplayer.Play, "-layout", "sideways", before, before)
	test.ExpectEquality(t, status, exitFailure)

	// negative timing values are rejected rather than wrapped
	status, stdout, stderr := run(t, fakeplayer.Play, "-tolerance", "-5", before, before)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stderr, "tolerance cannot be negative"), true)
	test.ExpectEquality(t, strings.Contains(stdout, "succeed"), false)

	status, _, stderr = run(t, fakeplayer.Play, "-window", "-1", before, before)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stderr, "quirk window cannot be negative"), true)

	status, _, _ = run(t, fakeplayer.Play, "-track", "-1", before, before)
	test.ExpectEquality(t, status, exitFailure)

	status, _, _ = run(t, fakeplayer.Play, "-track", "2", before, before)
	test.ExpectEquality(t, status, exitFailure)

	status, _, stderr = run(t, fakeplayer.Play, filepath.Join(dir, "missing.gbs"), before)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectInequality(t, stderr, "")

	// help is not an error
	status, stdout, _ = run(t, fakeplayer.Play, "COMPARE", "-help")
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.Contains(stdout, "-tolerance"), true)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	path := writeGBS(t, dir, "tune.gbs", driver)

	status, stdout, _ := run(t, fakeplayer.Play, "INFO", path)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.HasPrefix(stdout, "title:      Test Tune\n"), true)
	test.ExpectEquality(t, strings.Contains(stdout, "load:       $0400\n"), true)

	bad := filepath.Join(dir, "bad.gbs")
	test.DemandSuccess(t, os.WriteFile(bad, []byte("not a GBS file"), 0o644))
	status, _, stderr := run(t, fakeplayer.Play, "INFO", bad)
	test.ExpectEquality(t, status, exitFailure)
	test.ExpectEquality(t, strings.Contains(stderr, "(invalid GBS file)"), true)
}

func TestCaptureAndCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeGBS(t, dir, "tune.gbs", driver)

	setEnv(t, fakeplayer.Play)

	// the capture file is kept in memory so the same filesystem is used for
	// every step
	fs := testFs()
	capture := filepath.Join(dir, "tune.trace")

	var stdout, stderr strings.Builder
	status := launch(context.Background(), []string{"CAPTURE", path, capture}, &stdout, &stderr, fs)
	test.DemandEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.Contains(stdout.String(), "6 events"), true)

	stdout.Reset()
	status = launch(context.Background(), []string{"INFO", capture}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.Contains(stdout.String(), "events:      6\n"), true)

	stdout.Reset()
	status = launch(context.Background(), []string{path, capture}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.HasPrefix(stdout.String(), "succeed: track 1\n"), true)

	// capture files must have the correct extension
	status = launch(context.Background(), []string{"CAPTURE", path, filepath.Join(dir, "tune.txt")}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitFailure)

	status = launch(context.Background(), []string{"CAPTURE", "-layout", "sideways", path, filepath.Join(dir, "other.trace")}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitFailure)

	stdout.Reset()
	status = launch(context.Background(), []string{"CAPTURE", "-layout", "delta", path, filepath.Join(dir, "other.trace")}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.Contains(stdout.String(), "6 events"), true)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := writeGBS(t, dir, "tune.gbs", driver)

	setEnv(t, fakeplayer.Play)

	fs := testFs()
	wav := filepath.Join(dir, "tune.wav")

	var stdout, stderr strings.Builder
	status := launch(context.Background(), []string{"RENDER", "-tail", "100ms", "-tracker", path, wav}, &stdout, &stderr, fs)
	test.DemandEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.Contains(stdout.String(), "square 1"), true)

	ok, err := afero.Exists(fs, wav)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)

	status = launch(context.Background(), []string{"RENDER", "-layout", "sideways", path, wav}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitFailure)
}

func TestSavePreferences(t *testing.T) {
	dir := t.TempDir()
	before := writeGBS(t, dir, "before.gbs", driver)
	after := writeGBS(t, dir, "after.gbs", driver)

	setEnv(t, fakeplayer.Play)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	fs := testFs()

	var stdout, stderr strings.Builder
	status := launch(context.Background(), []string{"-tolerance", "250", "-saveprefs", before, after}, &stdout, &stderr, fs)
	test.DemandEquality(t, status, exitSuccess)

	data, err := afero.ReadFile(fs, filepath.Join(dir, "config", "gbsdiff", "preferences"))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, strings.Contains(string(data), "regression.tolerance :: 250\n"), true)

	// unknown preferences are reported but are not an error
	stdout.Reset()
	status = launch(context.Background(), []string{"-prefs", "regression.window::100; no.such::1", before, after}, &stdout, &stderr, fs)
	test.ExpectEquality(t, status, exitSuccess)
	test.ExpectEquality(t, strings.HasPrefix(stdout.String(), "warning: unknown preferences: no.such::1\n"), true)
}

func TestErrorClass(t *testing.T) {
	test.ExpectEquality(t, errorClass(tracesource.ErrPlayerNotFound), "player not found")
	test.ExpectEquality(t, errorClass(gbs.ErrFormat), "invalid GBS file")
	test.ExpectEquality(t, errorClass(context.Canceled), "interrupted")
	test.ExpectEquality(t, errorClass(os.ErrNotExist), "")
}
