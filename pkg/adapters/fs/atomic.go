package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/corkboard/pkg/core"
)

// TempFilePrefix marks half-written note files. They never match
// NotePattern, so neither LoadAll nor the watcher picks them up.
const TempFilePrefix = ".corkboard-tmp-"

const notePerm = 0o644

// writeRecord stores r as <dir>/<id>.json and returns the file name.
//
// The file is replaced through a rename, so readers see the old note or the
// new one and never a torn write. A file whose bytes already match is left
// untouched; an unchanged note produces no watcher event.
func writeRecord(dir string, r core.Record) (string, error) {
	name, err := fileName(r.ID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", r.ID, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, name)
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return name, nil
	}

	tmp, err := os.CreateTemp(dir, TempFilePrefix+r.ID+"-*")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), notePerm)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}
