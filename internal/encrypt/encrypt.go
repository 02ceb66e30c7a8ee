// Package encrypt seals an archive for a single age recipient.
package encrypt

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/TidosDK/laptop-backup/internal/config"
	"github.com/TidosDK/laptop-backup/internal/fs"
)

// ErrInvalidRecipient is returned when the public key does not parse as
// an age X25519 recipient.
var ErrInvalidRecipient = errors.New("invalid age recipient")

// Encrypt streams inputPath through age encryption for recipientKey into
// inputPath + ".age" and returns the output path. The output is written
// to a temp file and renamed into place; the plaintext is removed only
// after the encrypted file is finalized. On any earlier failure the
// plaintext is preserved and the temp file removed.
func Encrypt(fsys fs.FS, inputPath, recipientKey string) (string, error) {
	recipientKey = strings.TrimSpace(recipientKey)
	recipient, err := age.ParseX25519Recipient(recipientKey)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidRecipient, recipientKey, err)
	}

	outPath := inputPath + config.EncryptedExt

	in, err := fsys.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", inputPath, err)
	}
	defer in.Close()

	tmp, tmpPath, err := fsys.CreateTempFile(filepath.Dir(outPath), ".age-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %q: %w", outPath, err)
	}
	defer fsys.Remove(tmpPath) // no-op once renamed

	w, err := age.Encrypt(tmp, recipient)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("start encryption for %q: %w", inputPath, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encrypt %q: %w", inputPath, err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finalize encryption of %q: %w", inputPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", tmpPath, err)
	}

	if err := fsys.Rename(tmpPath, outPath); err != nil {
		return "", fmt.Errorf("rename %q to %q: %w", tmpPath, outPath, err)
	}

	if err := fsys.Remove(inputPath); err != nil {
		return outPath, fmt.Errorf("remove plaintext %q: %w", inputPath, err)
	}
	return outPath, nil
}
