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

package performance

import (
	"fmt"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/afero"
)

// ProfileCPU runs the supplied function with the CPU profiler running. The
// profile is written to outFile.
func ProfileCPU(fs afero.Fs, outFile string, run func() error) error {
	f, err := fs.Create(outFile)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	defer pprof.StopCPUProfile()

	return run()
}

// ProfileMem writes a heap profile to outFile.
func ProfileMem(fs afero.Fs, outFile string) error {
	f, err := fs.Create(outFile)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	return nil
}

// Profile runs the supplied function with the CPU profiler and writes a heap
// profile after it returns. The profile files are named with the prefix.
func Profile(fs afero.Fs, prefix string, run func() error) error {
	runErr := ProfileCPU(fs, fmt.Sprintf("%s.cpu.profile", prefix), run)
	if err := ProfileMem(fs, fmt.Sprintf("%s.mem.profile", prefix)); err != nil {
		if runErr != nil {
			return runErr
		}
		return err
	}
	return runErr
}
