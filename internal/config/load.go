package config

import (
	"fmt"
	"strings"

	"github.com/TidosDK/laptop-backup/internal/fsio"
)

// LoadSources reads the list of source paths, one per line.
// Blank lines and lines starting with '#' are skipped.
func LoadSources(path string) ([]string, error) {
	data, err := fsio.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source paths from %q: %w", path, err)
	}

	var sources []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	return sources, nil
}

// LoadRecipient reads the recipient public key file and returns its
// trimmed contents. Key format is validated by the encryptor, not here.
func LoadRecipient(path string) (string, error) {
	data, err := fsio.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read public key from %q: %w", path, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("public key file %q is empty", path)
	}
	return key, nil
}
