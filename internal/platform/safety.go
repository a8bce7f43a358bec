package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// DevDir is the sandbox root under the system temp directory.
const DevDir = "corkboard-dev"

// IsDevRun reports whether the process was built by `go run` or `go test`.
// Both place the binary in a temporary directory.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolvePath returns path unchanged unless sandbox is set, in which case a
// path outside the temp directory is re-rooted under it by base name.
func ResolvePath(path string, sandbox bool) string {
	if !sandbox {
		return path
	}

	clean := filepath.Clean(path)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") {
		return clean
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), DevDir, name)
}
