package util

import (
	"encoding/json"
	"path/filepath"

	"github.com/TidosDK/laptop-backup/internal/fs"
)

// WriteJSON writes a JSON file atomically using the FS interface.
var WriteJSON = func(fsys fs.FS, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	tmpFile, tmpPath, err := fsys.CreateTempFile(dir, "tmp-*.json")
	if err != nil {
		return err
	}
	defer fsys.Remove(tmpPath) // ensure cleanup on error

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	// Atomically rename
	return fsys.Rename(tmpPath, path)
}

// ReadJSON reads a JSON file and unmarshals it into v
var ReadJSON = func(fsys fs.FS, path string, v any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
