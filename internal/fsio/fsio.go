package fsio

import (
	"os"
)

// Hooks for filesystem operations
// used for testing
var (
	ReadFile  = os.ReadFile
	WriteFile = os.WriteFile
	StatFile  = os.Stat
	Exists    = func(path string) bool { _, err := StatFile(path); return err == nil }
)
