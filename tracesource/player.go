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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"gbsdiff/logger"
)

// DefaultPlayer is the name of the player executable if no other is
// specified.
const DefaultPlayer = "gbsplay"

// PlayerEnv is the environment variable that overrides the default player.
const PlayerEnv = "GBSPLAY"

// Player is a Source that runs an external player. The player must write
// register writes to its standard output in the format of the gbsplay
// iodumper plugin.
type Player struct {
	// path to the player executable. if the path contains no path separators
	// it is looked for in the directories named by the PATH environment
	// variable
	Path string

	// arguments placed before the arguments for the player. useful when the
	// player is run through a wrapper
	Prefix []string

	// additional environment variables for the player process
	Env []string

	// length of time to play the track. zero means the track is played until
	// the player decides it has ended
	Duration time.Duration

	// number of tracks in the GBS file if known. zero means unknown
	NumTracks int
}

// NewPlayer returns a Player for the executable at path. If path is empty then
// the value of the GBSPLAY environment variable is used, and if that is empty
// the DefaultPlayer.
func NewPlayer(path string) *Player {
	if path == "" {
		path = os.Getenv(PlayerEnv)
	}
	if path == "" {
		path = DefaultPlayer
	}
	return &Player{Path: path}
}

// Args returns the arguments given to the player for the track.
func (p *Player) Args(h Handle) []string {
	args := make([]string, 0, len(p.Prefix)+12)
	args = append(args, p.Prefix...)

	// iodumper output, no fading, no gap between tracks, no silence detection
	args = append(args, "-o", "iodumper", "-f", "0", "-g", "0", "-T", "0")

	if p.Duration > 0 {
		secs := int((p.Duration + time.Second - 1) / time.Second)
		args = append(args, "-t", strconv.Itoa(secs))
	}

	// the start and stop track are the same so only one track is played
	track := strconv.Itoa(h.Track + 1)
	args = append(args, h.Path, track, track)

	return args
}

// Open implements the Source interface. The player process is started
// immediately and runs until the stream is read to the end, the stream is
// closed, or the context is done.
func (p *Player) Open(ctx context.Context, h Handle) (io.ReadCloser, error) {
	if h.Track < 0 || (p.NumTracks > 0 && h.Track >= p.NumTracks) {
		return nil, fmt.Errorf("tracesource: %w: track %d of %d", ErrInvalidTrack, h.Track+1, p.NumTracks)
	}

	exe, err := exec.LookPath(p.Path)
	if err != nil {
		return nil, fmt.Errorf("tracesource: %w: %w", ErrPlayerNotFound, err)
	}

	cmd := exec.CommandContext(ctx, exe, p.Args(h)...)
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	// a player that ignores the kill signal will not keep Wait() from
	// returning for longer than this
	cmd.WaitDelay = time.Second

	proc := &process{
		ctx:    ctx,
		cmd:    cmd,
		handle: h,
	}
	cmd.Stderr = &proc.stderr

	proc.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("tracesource: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("tracesource: %w: %w", ErrPlayerNotFound, err)
		}
		return nil, fmt.Errorf("tracesource: %w: %w", ErrPlayerCrashed, err)
	}

	logger.Logf(logger.Allow, "tracesource", "started %s for %s (pid %d)", p.Path, h, cmd.Process.Pid)

	return proc, nil
}

// process is a running player. it implements the io.ReadCloser interface.
type process struct {
	ctx    context.Context
	cmd    *exec.Cmd
	handle Handle
	stdout io.ReadCloser
	stderr stderrBuffer

	waitOnce sync.Once
	waitErr  error

	// the process has been killed by Close()
	closed bool
}

// Read implements the io.Reader interface. The end of the player's output is
// only reported as io.EOF if the player exited without error.
func (proc *process) Read(p []byte) (int, error) {
	n, err := proc.stdout.Read(p)
	if err == nil {
		return n, nil
	}

	// the pipe is closed when the process ends, whatever the reason. the
	// exit status decides how the end of the stream is reported
	if werr := proc.wait(); werr != nil {
		return n, werr
	}
	if err == io.EOF {
		return n, io.EOF
	}
	return n, fmt.Errorf("tracesource: %w", err)
}

// Close implements the io.Closer interface. The player process is killed if it
// is still running and is always waited for.
func (proc *process) Close() error {
	if proc.cmd.ProcessState == nil {
		proc.closed = true
		_ = proc.cmd.Process.Kill()
	}
	_ = proc.wait()
	return nil
}

// wait for the process to end and classify the exit status. only the first
// call waits. subsequent calls return the same result.
func (proc *process) wait() error {
	proc.waitOnce.Do(func() {
		err := proc.cmd.Wait()
		proc.waitErr = proc.classify(err)

		// a process stopped on purpose is not worth logging
		if proc.waitErr != nil && !proc.closed && !errors.Is(proc.waitErr, context.Canceled) {
			logger.Logf(logger.Allow, "tracesource", "%v", proc.waitErr)
		}
	})
	return proc.waitErr
}

func (proc *process) classify(err error) error {
	if err == nil {
		return nil
	}

	if ctxErr := proc.ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("tracesource: %s: %w: %w", proc.handle, ErrPlayerCrashed, ErrTimeout)
		}
		return fmt.Errorf("tracesource: %s: %w", proc.handle, ctxErr)
	}

	stderr := proc.stderr.String()
	if invalidTrack(stderr) {
		return fmt.Errorf("tracesource: %s: %w: %s", proc.handle, ErrInvalidTrack, firstLine(stderr))
	}

	if stderr != "" {
		return fmt.Errorf("tracesource: %s: %w: %v: %s", proc.handle, ErrPlayerCrashed, err, firstLine(stderr))
	}
	return fmt.Errorf("tracesource: %s: %w: %v", proc.handle, ErrPlayerCrashed, err)
}

// invalidTrack returns true if the player's error output says that the
// requested track does not exist.
func invalidTrack(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "subsong") && (strings.Contains(s, "out of range") || strings.Contains(s, "invalid"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
