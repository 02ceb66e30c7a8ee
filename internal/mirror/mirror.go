// Package mirror copies source files and directories into a staging tree
// whose layout reproduces each source's absolute path, re-rooted under the
// staging root.
package mirror

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/TidosDK/laptop-backup/internal/fs"
)

var (
	// ErrNotAbsolute is returned when a source path is not absolute.
	ErrNotAbsolute = errors.New("source path is not absolute")
	// ErrNotFound is returned when a source path is neither a regular
	// file nor a directory.
	ErrNotFound = errors.New("source path does not exist")
)

// MirroredPath maps an absolute path to its location under the staging
// root: the leading separator is stripped and the remainder re-parented.
// The mapping is a pure function of both arguments.
func MirroredPath(p, stagingRoot string) string {
	p = filepath.Clean(p)
	return filepath.Join(stagingRoot, strings.TrimPrefix(p, string(filepath.Separator)))
}

// Mirror copies source (a regular file or a directory tree) into the
// staging tree under stagingRoot. Per-file copy failures and non-regular
// children are recorded in the returned Report and do not abort the walk;
// validation and structural failures (missing source, unreadable
// directory, destination creation) are returned as errors. The Report is
// never nil and may carry partial results alongside an error.
func Mirror(fsys fs.FS, source, stagingRoot string) (*Report, error) {
	rep := &Report{}

	if !filepath.IsAbs(source) {
		return rep, fmt.Errorf("mirror %q: %w", source, ErrNotAbsolute)
	}
	source = filepath.Clean(source)

	fi, err := fsys.Stat(source)
	if err != nil {
		return rep, fmt.Errorf("mirror %q: %w", source, ErrNotFound)
	}

	if fi.IsDir() {
		return rep, mirrorDir(fsys, source, stagingRoot, rep)
	}
	if !fi.Mode().IsRegular() {
		return rep, fmt.Errorf("mirror %q: %w", source, ErrNotFound)
	}
	return rep, mirrorFile(fsys, source, stagingRoot, rep)
}

// mirrorFile mirrors a single regular file: the full absolute parent path
// is re-rooted under the staging root and the file copied there under its
// own name.
func mirrorFile(fsys fs.FS, source, stagingRoot string, rep *Report) error {
	destDir := MirroredPath(filepath.Dir(source), stagingRoot)
	if err := fsys.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create mirror dir %q: %w", destDir, err)
	}

	dest := filepath.Join(destDir, filepath.Base(source))
	if err := copyFile(fsys, source, dest); err != nil {
		rep.fail(source, err)
		return nil
	}
	rep.Copied++
	return nil
}

// mirrorDir mirrors the subtree rooted at dir. Each child directory is
// mirrored from its own absolute path, so the destination is never
// composed from the parent's destination. A child directory that resolves
// to the same directory as dir (a self-referencing symlink) is skipped;
// longer symlink cycles through ancestors are not detected.
func mirrorDir(fsys fs.FS, dir, stagingRoot string, rep *Report) error {
	dest := MirroredPath(dir, stagingRoot)
	if err := fsys.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create mirror dir %q: %w", dest, err)
	}

	resolved, err := fsys.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", dir, err)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so a link to a regular file is
		// copied and a link to a directory is walked.
		fi, err := fsys.Stat(child)
		if err != nil {
			rep.skip(child, "cannot stat: "+err.Error())
			continue
		}

		switch {
		case fi.IsDir():
			childResolved, err := fsys.EvalSymlinks(child)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", child, err)
			}
			if childResolved == resolved {
				rep.skip(child, "self-referencing directory link")
				continue
			}
			if err := mirrorDir(fsys, child, stagingRoot, rep); err != nil {
				return err
			}
		case fi.Mode().IsRegular():
			if err := copyFile(fsys, child, filepath.Join(dest, entry.Name())); err != nil {
				rep.fail(child, err)
				continue
			}
			rep.Copied++
		default:
			rep.skip(child, "not a regular file")
		}
	}

	return nil
}

// copyFile copies src to dest byte for byte.
func copyFile(fsys fs.FS, src, dest string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := fsys.Create(dest)
	if err != nil {
		return fmt.Errorf("create %q: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %q to %q: %w", src, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w", dest, err)
	}
	return nil
}
