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

package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const portablePath = ".gbsdiff"

const configDirName = "gbsdiff"

// basePath returns the directory in which resources are kept.
func basePath(fs afero.Fs) (string, error) {
	if ok, _ := afero.DirExists(fs, portablePath); ok {
		return portablePath, nil
	}

	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resources: %w", err)
	}
	return filepath.Join(cfg, configDirName), nil
}

// JoinPath prepends the supplied path with the base path for resources. The
// base path is not prepended if it is already present.
//
// The function creates all folders necessary to reach the end of the path.
// It does not otherwise touch or create the file.
func JoinPath(fs afero.Fs, path ...string) (string, error) {
	b, err := basePath(fs)
	if err != nil {
		return "", err
	}

	p := filepath.Join(path...)
	if !strings.HasPrefix(p, b) {
		p = filepath.Join(b, p)
	}

	if _, err := fs.Stat(p); err == nil {
		return p, nil
	}

	if err := fs.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("resources: %w", err)
	}

	return p, nil
}
