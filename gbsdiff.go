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
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"gbsdiff/comparator"
	"gbsdiff/comparison"
	"gbsdiff/decoder"
	"gbsdiff/gbs"
	"gbsdiff/logger"
	"gbsdiff/modalflag"
	"gbsdiff/performance"
	"gbsdiff/prefs"
	"gbsdiff/quirks"
	"gbsdiff/recorder"
	"gbsdiff/regression"
	"gbsdiff/statsview"
	"gbsdiff/synth"
	"gbsdiff/tracesource"
	"gbsdiff/ui"
	"gbsdiff/version"
	"gbsdiff/wavwriter"

	"github.com/spf13/afero"
)

// exit status of the program.
const (
	exitSuccess   = 0
	exitDifferent = 1
	exitFailure   = 2
)

// prefix for CPU and memory profile files.
const profilePrefix = "gbsdiff"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := launch(ctx, os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs())
	stop()
	os.Exit(status)
}

// launch runs the program with the command line arguments and returns the
// exit status.
func launch(ctx context.Context, args []string, stdout, stderr io.Writer, fs afero.Fs) int {
	md := &modalflag.Modes{Output: stdout}
	md.NewArgs(args)
	md.NewMode()
	md.AddSubModes("COMPARE", "CAPTURE", "RENDER", "INFO")
	showVersion := md.AddBool("version", false, "print version information")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitSuccess
	case modalflag.ParseError:
		fmt.Fprintf(stderr, "* error: %s\n", err)
		return exitFailure
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return exitSuccess
	}

	status := exitSuccess

	switch md.Mode() {
	case "COMPARE":
		status, err = compare(ctx, md, stdout, stderr, fs)
	case "CAPTURE":
		err = capture(ctx, md, stdout, fs)
	case "RENDER":
		err = render(ctx, md, stdout, fs)
	case "INFO":
		err = info(md, stdout, fs)
	}

	if err != nil {
		if class := errorClass(err); class != "" {
			fmt.Fprintf(stderr, "* error in %s mode (%s): %s\n", md, class, err)
		} else {
			fmt.Fprintf(stderr, "* error in %s mode: %s\n", md, err)
		}
		return exitFailure
	}

	return status
}

// errorClass returns a short description of the kind of error. The empty
// string is returned for errors that do not belong to a known class.
func errorClass(err error) string {
	switch {
	case errors.Is(err, tracesource.ErrTimeout):
		return "timeout"
	case errors.Is(err, tracesource.ErrPlayerNotFound):
		return "player not found"
	case errors.Is(err, tracesource.ErrPlayerCrashed):
		return "player crashed"
	case errors.Is(err, tracesource.ErrInvalidTrack):
		return "invalid track"
	case errors.Is(err, decoder.ErrMalformedTrace):
		return "malformed trace"
	case errors.Is(err, gbs.ErrFormat):
		return "invalid GBS file"
	case errors.Is(err, recorder.ErrNotCapture), errors.Is(err, recorder.ErrDigestMismatch):
		return "invalid capture file"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return ""
}

// resolvePlayer returns the player executable. The value of the player flag
// takes precedence over the GBSPLAY environment variable, which takes
// precedence over the preferred value.
func resolvePlayer(flagged bool, flag string, preferred string) string {
	if flagged {
		return flag
	}
	if env := os.Getenv(tracesource.PlayerEnv); env != "" {
		return env
	}
	return preferred
}

func compare(ctx context.Context, md *modalflag.Modes, stdout, stderr io.Writer, fs afero.Fs) (int, error) {
	md.NewMode()
	md.AdditionalHelp(fmt.Sprintf("files ending with %s are read as capture files rather than played", recorder.Extension))

	player := md.AddString("player", "", fmt.Sprintf("player executable (default $%s or %s)", tracesource.PlayerEnv, tracesource.DefaultPlayer))
	track := md.AddInt("track", 0, "compare a single track, numbered from one (default all tracks)")
	duration := md.AddDuration("duration", 0, "play duration of each track (default until the track ends)")
	timeout := md.AddDuration("timeout", regression.DefaultTimeout, "time allowed for each track")
	tolerance := md.AddInt("tolerance", comparator.DefaultTolerance, "timing tolerance in cycles")
	window := md.AddInt("window", quirks.DefaultWindow, "length of a quirk region in cycles")
	quirkMode := md.AddString("quirks", quirks.ModeAuto.String(), "quirk filter: AUTO, ON, OFF. without -quirkports only players that print pc= can trigger it")
	quirkPorts := md.AddString("quirkports", "", "comma separated registers that also begin a quirk region. needed for players that do not print pc=, such as stock gbsplay")
	layout := md.AddString("layout", decoder.LayoutDelta.String(), layoutUsage)
	pedantic := md.AddBool("pedantic", false, "report timing differences within the tolerance")
	verbose := md.AddBool("verbose", false, "print event counts and digests for each track")
	log := md.AddBool("log", false, "echo debugging log to stderr")
	color := md.AddString("color", ui.ColorAuto.String(), "coloured output: AUTO, ON, OFF")
	prefsOverride := md.AddString("prefs", "", "preference values in the form key::value; key::value")
	savePrefs := md.AddBool("saveprefs", false, "save the values of the flags as preferences")
	profile := md.AddBool("profile", false, "write cpu and memory profiles")

	var stats *bool
	if statsview.Available() {
		stats = md.AddBool("statsview", false, "run the runtime statistics server")
	}

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return exitSuccess, err
	}

	switch len(md.RemainingArgs()) {
	case 0, 1:
		return exitFailure, fmt.Errorf("before and after files required for %s mode", md)
	case 2:
	default:
		return exitFailure, fmt.Errorf("too many arguments for %s mode", md)
	}

	if *log {
		logger.SetEcho(stderr, false)
		defer logger.SetEcho(nil, false)
	}

	colorMode, err := ui.ParseColorMode(*color)
	if err != nil {
		return exitFailure, err
	}
	rep := regression.NewReporter(stdout, ui.NewPalette(colorMode, stdout))
	rep.Verbose = *verbose

	set := make(map[string]bool)
	md.Visit(func(flag string) {
		set[flag] = true
	})

	prefs.SetCommandLine(*prefsOverride)
	prf, err := regression.NewPreferences(fs)
	if err != nil {
		return exitFailure, err
	}
	if unused := prefs.UnusedCommandLine(); unused != "" {
		rep.Warning("unknown preferences: %s", unused)
	}

	// flags given on the command line replace the preferred values
	overrides := []struct {
		flag  string
		pref  interface{ Set(prefs.Value) error }
		value prefs.Value
	}{
		{"player", &prf.Player, *player},
		{"tolerance", &prf.Tolerance, *tolerance},
		{"window", &prf.Window, *window},
		{"quirks", &prf.Quirks, *quirkMode},
		{"duration", &prf.Duration, *duration},
		{"timeout", &prf.Timeout, *timeout},
	}
	for _, o := range overrides {
		if !set[o.flag] {
			continue // for loop
		}
		if err := o.pref.Set(o.value); err != nil {
			return exitFailure, fmt.Errorf("-%s: %w", o.flag, err)
		}
	}

	if *savePrefs {
		if err := prf.Save(); err != nil {
			return exitFailure, err
		}
		logger.Logf(logger.Allow, "gbsdiff", "preferences saved: %s", prf)
	}

	ports, err := regression.ParsePorts(*quirkPorts)
	if err != nil {
		return exitFailure, err
	}

	lay, err := decoder.ParseLayout(*layout)
	if err != nil {
		return exitFailure, err
	}

	cfg := regression.Config{
		Player:     resolvePlayer(set["player"], *player, prf.Player.String()),
		Duration:   prf.Duration.Get().(time.Duration),
		QuirkMode:  prf.QuirkMode(),
		Window:     uint64(prf.Window.Get().(int)),
		QuirkPorts: ports,
		Layout:     lay,
	}

	before, err := regression.NewSide(fs, md.GetArg(0), cfg)
	if err != nil {
		return exitFailure, err
	}
	after, err := regression.NewSide(fs, md.GetArg(1), cfg)
	if err != nil {
		return exitFailure, err
	}

	opts := regression.Options{
		Comparison: comparison.Options{
			Comparator: comparator.Options{
				Tolerance:     uint64(prf.Tolerance.Get().(int)),
				FrameBoundary: comparator.DefaultFrameBoundary,
			},
			Timeout: prf.Timeout.Get().(time.Duration),
		},
		Pedantic: *pedantic,
	}

	if *track < 0 {
		return exitFailure, fmt.Errorf("%w: %d", tracesource.ErrInvalidTrack, *track)
	}
	if *track > 0 {
		opts.Tracks = []int{*track - 1}
	}

	if stats != nil && *stats {
		statsview.Launch(stdout)
	}

	var summary regression.Summary
	regress := func() error {
		var err error
		summary, err = regression.Regress(ctx, before, after, opts, rep)
		return err
	}

	if *profile {
		err = performance.Profile(fs, profilePrefix, regress)
	} else {
		err = regress()
	}
	if err != nil {
		return exitFailure, err
	}

	if !summary.Success() {
		return exitDifferent, nil
	}
	return exitSuccess, nil
}

const layoutUsage = "time field of the player output: delta, absolute"

// gbsPlayer returns the player for a track of the GBS file at path.
func gbsPlayer(fs afero.Fs, path string, track int, player string, duration time.Duration) (*tracesource.Player, error) {
	hdr, err := gbs.Open(fs, path)
	if err != nil {
		return nil, err
	}
	if track < 1 || track > hdr.NumSongs {
		return nil, fmt.Errorf("%w: %s has %d tracks", tracesource.ErrInvalidTrack, path, hdr.NumSongs)
	}

	p := tracesource.NewPlayer(player)
	p.Duration = duration
	p.NumTracks = hdr.NumSongs
	return p, nil
}

func capture(ctx context.Context, md *modalflag.Modes, stdout io.Writer, fs afero.Fs) error {
	md.NewMode()

	player := md.AddString("player", "", fmt.Sprintf("player executable (default $%s or %s)", tracesource.PlayerEnv, tracesource.DefaultPlayer))
	track := md.AddInt("track", 1, "track to capture, numbered from one")
	duration := md.AddDuration("duration", 0, "play duration (default until the track ends)")
	layout := md.AddString("layout", decoder.LayoutDelta.String(), layoutUsage)

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	switch len(md.RemainingArgs()) {
	case 0, 1:
		return fmt.Errorf("GBS file and output file required for %s mode", md)
	case 2:
	default:
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	in, out := md.GetArg(0), md.GetArg(1)
	if !regression.IsRecording(out) {
		return fmt.Errorf("output file must have the %s extension", recorder.Extension)
	}

	set := make(map[string]bool)
	md.Visit(func(flag string) {
		set[flag] = true
	})

	lay, err := decoder.ParseLayout(*layout)
	if err != nil {
		return err
	}

	pl, err := gbsPlayer(fs, in, *track, resolvePlayer(set["player"], *player, ""), *duration)
	if err != nil {
		return err
	}

	inf, err := recorder.Capture(ctx, pl, tracesource.Handle{Path: in, Track: *track - 1}, decoder.Options{Layout: lay}, fs, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %s\n", out, inf)

	return nil
}

func render(ctx context.Context, md *modalflag.Modes, stdout io.Writer, fs afero.Fs) error {
	md.NewMode()
	md.AdditionalHelp(fmt.Sprintf("the input can be a GBS file or a capture file ending with %s", recorder.Extension))

	player := md.AddString("player", "", fmt.Sprintf("player executable (default $%s or %s)", tracesource.PlayerEnv, tracesource.DefaultPlayer))
	track := md.AddInt("track", 1, "track to render, numbered from one")
	duration := md.AddDuration("duration", 0, "play duration (default until the track ends)")
	tail := md.AddDuration("tail", time.Second, "length of audio after the last register write")
	layout := md.AddString("layout", decoder.LayoutDelta.String(), layoutUsage+". not used for capture files")
	showTracker := md.AddBool("tracker", false, "print the channel changes")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	switch len(md.RemainingArgs()) {
	case 0, 1:
		return fmt.Errorf("input file and WAV file required for %s mode", md)
	case 2:
	default:
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	in, out := md.GetArg(0), md.GetArg(1)

	set := make(map[string]bool)
	md.Visit(func(flag string) {
		set[flag] = true
	})

	var src tracesource.Source
	var opts decoder.Options

	if regression.IsRecording(in) {
		src = tracesource.Recording{Fs: fs}
		opts = recorder.DecoderOptions()
	} else {
		opts.Layout, err = decoder.ParseLayout(*layout)
		if err != nil {
			return err
		}
		src, err = gbsPlayer(fs, in, *track, resolvePlayer(set["player"], *player, ""), *duration)
		if err != nil {
			return err
		}
	}

	r, err := src.Open(ctx, tracesource.Handle{Path: in, Track: *track - 1})
	if err != nil {
		return err
	}
	defer r.Close()

	ww, err := wavwriter.New(fs, out, synth.SampleRate)
	if err != nil {
		return err
	}

	// the WAV file is closed by Render()
	s, err := synth.Render(decoder.New(r, opts), ww, uint64(tail.Seconds()*synth.ClockRate))
	if err != nil {
		return err
	}

	if *showTracker {
		for _, e := range s.Tracker().Entries() {
			fmt.Fprintln(stdout, e)
		}
	}

	fmt.Fprintf(stdout, "%s: %.2f seconds\n", out, float64(s.Samples())/synth.SampleRate)

	return nil
}

func info(md *modalflag.Modes, stdout io.Writer, fs afero.Fs) error {
	md.NewMode()
	md.AdditionalHelp(fmt.Sprintf("capture files ending with %s are checked against their digest", recorder.Extension))

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	switch len(md.RemainingArgs()) {
	case 0:
		return fmt.Errorf("file required for %s mode", md)
	case 1:
	default:
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	path := md.GetArg(0)

	if regression.IsRecording(path) {
		inf, err := recorder.Verify(fs, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "capture of:  %s\n", inf.Source)
		fmt.Fprintf(stdout, "track:       %d\n", inf.Track+1)
		fmt.Fprintf(stdout, "events:      %d\n", inf.Events)
		fmt.Fprintf(stdout, "digest:      %s\n", inf.Digest)
		return nil
	}

	hdr, err := gbs.Open(fs, path)
	if err != nil {
		return err
	}
	io.WriteString(stdout, hdr.String())

	return nil
}
