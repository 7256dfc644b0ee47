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

package regression

import (
	"context"
	"fmt"

	"gbsdiff/comparator"
	"gbsdiff/comparison"
	"gbsdiff/logger"
	"gbsdiff/tracesource"
)

// Options for Regress().
type Options struct {
	// tracks to compare, numbered from zero. if empty every track of the
	// before file is compared. if either side is a capture file then only the
	// captured track is compared and Tracks must be empty or name that track
	Tracks []int

	Comparison comparison.Options

	// report timing differences that are within the tolerance
	Pedantic bool
}

// Summary of a regression run.
type Summary struct {
	// number of tracks with a verdict
	Tracks    int
	Identical int
	Different int

	// tracks that were different, numbered from zero
	Failing []int
}

// Success returns true if every track compared was identical.
func (s Summary) Success() bool {
	return s.Different == 0
}

// tracks returns the list of tracks to compare. The list is taken from the
// options if it is not empty. A warning is printed if the two sides have a
// different number of tracks.
func (opts Options) tracks(before, after Side, rep *Reporter) ([]int, error) {
	if before.Recording || after.Recording {
		return opts.recordedTrack(before, after)
	}

	if before.NumTracks != after.NumTracks {
		rep.Warning("%s has %d tracks, %s has %d; hopefully none are mismatched", before, before.NumTracks, after, after.NumTracks)
	}

	if len(opts.Tracks) > 0 {
		for _, t := range opts.Tracks {
			if t < 0 || t >= before.NumTracks {
				return nil, fmt.Errorf("regression: %w: %s has no track %d", tracesource.ErrInvalidTrack, before, t+1)
			}
		}
		return opts.Tracks, nil
	}

	tracks := make([]int, min(before.NumTracks, after.NumTracks))
	for i := range tracks {
		tracks[i] = i
	}
	return tracks, nil
}

// recordedTrack returns the track to compare when one or both sides are
// capture files. A capture file holds a single track and the GBS side is played
// at that track.
func (opts Options) recordedTrack(before, after Side) ([]int, error) {
	track := before.Track
	if !before.Recording {
		track = after.Track
	}

	if before.Recording && after.Recording && before.Track != after.Track {
		return nil, fmt.Errorf("regression: %w: %s is a capture of track %d, %s is a capture of track %d",
			tracesource.ErrInvalidTrack, before, before.Track+1, after, after.Track+1)
	}

	for _, t := range opts.Tracks {
		if t != track {
			return nil, fmt.Errorf("regression: %w: track %d requested but the capture is of track %d",
				tracesource.ErrInvalidTrack, t+1, track+1)
		}
	}

	for _, s := range []Side{before, after} {
		if !s.Recording && track >= s.NumTracks {
			return nil, fmt.Errorf("regression: %w: %s has no track %d", tracesource.ErrInvalidTrack, s, track+1)
		}
	}

	return []int{track}, nil
}

// Regress compares the tracks of the before and after files. An error is
// returned at the first track that cannot be compared, with the Summary of
// the tracks compared before it.
func Regress(ctx context.Context, before, after Side, opts Options, rep *Reporter) (Summary, error) {
	var s Summary

	tracks, err := opts.tracks(before, after, rep)
	if err != nil {
		return s, err
	}

	for _, track := range tracks {
		track := track
		copts := opts.Comparison
		if opts.Pedantic {
			copts.Comparator.OnDrift = func(d comparator.Drift) {
				rep.Drift(track, d)
			}
		}

		rep.Running(track, before, after)

		res, err := comparison.Run(ctx, before.Pipeline(track), after.Pipeline(track), copts)
		if err != nil {
			rep.Error(track, err)
			return s, fmt.Errorf("regression: track %d: %w", track+1, err)
		}

		rep.Result(track, res)

		s.Tracks++
		if res.Verdict.Identical() {
			s.Identical++
		} else {
			s.Different++
			s.Failing = append(s.Failing, track)
		}
	}

	logger.Logf(logger.Allow, "regression", "%d tracks: %d identical, %d different", s.Tracks, s.Identical, s.Different)

	rep.Summary(s)

	return s, nil
}
