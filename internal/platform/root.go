package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/corkboard/pkg/config"
)

// ErrNoConfig is returned by FindConfig when no config file exists in
// startDir or any of its parents.
var ErrNoConfig = errors.New("config file not found")

// FindConfig looks upwards from startDir for one of config.DefaultFiles and
// returns its absolute path.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range config.DefaultFiles {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfig
		}
		dir = parent
	}
}
