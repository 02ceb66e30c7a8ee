// Package archive serializes a staging tree into a single tar container
// and removes the tree afterwards.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/TidosDK/laptop-backup/internal/config"
	"github.com/TidosDK/laptop-backup/internal/fs"
)

// timestampLayout gives second resolution, one archive name per second.
const timestampLayout = "2006-01-02_15-04-05"

// Result is the outcome of a successful Create call. CleanupErr is set
// when the archive was written but the staging root could not be removed;
// the archive is still valid in that case.
type Result struct {
	Path       string
	CleanupErr error
}

// Create writes every directory and regular file under stagingRoot into
// <stagingRoot>-<timestamp>.tar, entry names prefixed with the staging
// root's base name. On success the staging root is removed (best effort).
// On failure the partial container is removed and the staging root is
// left intact for diagnosis.
func Create(fsys fs.FS, stagingRoot string) (*Result, error) {
	stagingRoot = filepath.Clean(stagingRoot)
	if !fsys.IsDir(stagingRoot) {
		return nil, fmt.Errorf("staging root %q is not a directory", stagingRoot)
	}

	name := fmt.Sprintf("%s-%s%s", stagingRoot, time.Now().Format(timestampLayout), config.ArchiveExt)

	out, err := fsys.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create archive %q: %w", name, err)
	}

	tw := tar.NewWriter(out)
	if err := appendTree(fsys, tw, stagingRoot, filepath.Base(stagingRoot)); err != nil {
		tw.Close()
		out.Close()
		fsys.Remove(name)
		return nil, fmt.Errorf("archive %q: %w", stagingRoot, err)
	}
	if err := tw.Close(); err != nil {
		out.Close()
		fsys.Remove(name)
		return nil, fmt.Errorf("finalize archive %q: %w", name, err)
	}
	if err := out.Close(); err != nil {
		fsys.Remove(name)
		return nil, fmt.Errorf("close archive %q: %w", name, err)
	}

	res := &Result{Path: name}
	if err := fsys.RemoveAll(stagingRoot); err != nil {
		res.CleanupErr = fmt.Errorf("remove staging root %q: %w", stagingRoot, err)
	}
	return res, nil
}

// appendTree appends dir and its contents to tw. Entry names use prefix
// in place of dir, so archives unpack under the staging root's name.
func appendTree(fsys fs.FS, tw *tar.Writer, dir, prefix string) error {
	fi, err := fsys.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %q: %w", dir, err)
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return fmt.Errorf("header for %q: %w", dir, err)
	}
	hdr.Name = prefix + "/"
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("append dir %q: %w", dir, err)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		childName := path.Join(prefix, entry.Name())

		if entry.IsDir() {
			if err := appendTree(fsys, tw, child, childName); err != nil {
				return err
			}
			continue
		}

		cfi, err := fsys.Stat(child)
		if err != nil {
			return fmt.Errorf("stat %q: %w", child, err)
		}
		if !cfi.Mode().IsRegular() {
			continue
		}

		chdr, err := tar.FileInfoHeader(cfi, "")
		if err != nil {
			return fmt.Errorf("header for %q: %w", child, err)
		}
		chdr.Name = childName
		if err := tw.WriteHeader(chdr); err != nil {
			return fmt.Errorf("append %q: %w", child, err)
		}

		f, err := fsys.Open(child)
		if err != nil {
			return fmt.Errorf("open %q: %w", child, err)
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return fmt.Errorf("write %q: %w", child, err)
		}
		f.Close()
	}

	return nil
}
