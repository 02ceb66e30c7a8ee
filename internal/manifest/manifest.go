// Package manifest records a checksum per mirrored file so a restored
// staging tree can be verified against the backup that produced it.
package manifest

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/TidosDK/laptop-backup/internal/config"
	"github.com/TidosDK/laptop-backup/internal/fs"
	"github.com/TidosDK/laptop-backup/internal/util"
)

// mmapThreshold is the file size above which hashing goes through a
// memory-mapped reader instead of loading the whole file.
const mmapThreshold = 64 << 20 // 64 MiB

// Entry describes one regular file in the staging tree.
type Entry struct {
	Path string `json:"path"` // relative to the staging root, slash-separated
	Size int64  `json:"size"`
	Hash string `json:"hash"` // xxh3-128, hex
}

// Manifest lists every regular file under a staging root.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Files     []Entry   `json:"files"`
}

// Mismatch reports one manifest entry that does not match the tree.
type Mismatch struct {
	Path string
	Want string
	Got  string // hash, or "missing"
}

// Build walks the staging tree and hashes every regular file. The
// manifest file itself, if already present at the root, is excluded.
func Build(fsys fs.FS, stagingRoot string) (*Manifest, error) {
	m := &Manifest{CreatedAt: time.Now()}
	if err := buildDir(fsys, stagingRoot, stagingRoot, m); err != nil {
		return nil, err
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	return m, nil
}

func buildDir(fsys fs.FS, root, dir string, m *Manifest) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := buildDir(fsys, root, path, m); err != nil {
				return err
			}
			continue
		}
		if dir == root && entry.Name() == config.ManifestFile {
			continue
		}

		e, err := hashEntry(fsys, root, path)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, e)
	}
	return nil
}

func hashEntry(fsys fs.FS, root, path string) (Entry, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %q: %w", path, err)
	}

	var sum string
	if fi.Size() >= mmapThreshold {
		sum, err = hashLarge(path, fi.Size())
	} else {
		sum, err = hashSmall(fsys, path)
	}
	if err != nil {
		return Entry{}, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Entry{}, fmt.Errorf("relativize %q: %w", path, err)
	}

	return Entry{
		Path: filepath.ToSlash(rel),
		Size: fi.Size(),
		Hash: sum,
	}, nil
}

func hashSmall(fsys fs.FS, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	h := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(h[:]), nil
}

// Write persists the manifest inside the staging root so it travels with
// the archive. The write is atomic (temp file + rename).
func Write(fsys fs.FS, stagingRoot string, m *Manifest) error {
	path := filepath.Join(stagingRoot, config.ManifestFile)
	if err := util.WriteJSON(fsys, path, m); err != nil {
		return fmt.Errorf("write manifest %q: %w", path, err)
	}
	return nil
}

// Read loads a manifest from the root of a (restored) staging tree.
func Read(fsys fs.FS, stagingRoot string) (*Manifest, error) {
	path := filepath.Join(stagingRoot, config.ManifestFile)
	var m Manifest
	if err := util.ReadJSON(fsys, path, &m); err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	return &m, nil
}

// Verify re-hashes every manifest entry against the tree under root and
// returns one Mismatch per missing or altered file.
func Verify(fsys fs.FS, root string, m *Manifest) []Mismatch {
	var mismatches []Mismatch
	for _, e := range m.Files {
		path := filepath.Join(root, filepath.FromSlash(e.Path))

		fi, err := fsys.Stat(path)
		if err != nil {
			mismatches = append(mismatches, Mismatch{Path: e.Path, Want: e.Hash, Got: "missing"})
			continue
		}

		var sum string
		if fi.Size() >= mmapThreshold {
			sum, err = hashLarge(path, fi.Size())
		} else {
			sum, err = hashSmall(fsys, path)
		}
		if err != nil || sum != e.Hash {
			got := sum
			if err != nil {
				got = "unreadable"
			}
			mismatches = append(mismatches, Mismatch{Path: e.Path, Want: e.Hash, Got: got})
		}
	}
	return mismatches
}
