package mirror_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TidosDK/laptop-backup/internal/fs"
	"github.com/TidosDK/laptop-backup/internal/mirror"
)

func TestMirroredPath(t *testing.T) {
	cases := []struct {
		source string
		root   string
		want   string
	}{
		{"/a/b/c", "root", filepath.Join("root", "a", "b", "c")},
		{"/x", "root", filepath.Join("root", "x")},
		{"/very/deep/nested/tree/leaf.txt", "staging", filepath.Join("staging", "very", "deep", "nested", "tree", "leaf.txt")},
	}
	for _, c := range cases {
		if got := mirror.MirroredPath(c.source, c.root); got != c.want {
			t.Errorf("MirroredPath(%q, %q) = %q, want %q", c.source, c.root, got, c.want)
		}
	}
}

func TestMirrorSingleFile(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "docs")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(srcDir, "note.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	staging := filepath.Join(tmp, "staging")
	rep, err := mirror.Mirror(fsys, src, staging)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != 1 || !rep.Clean() {
		t.Fatalf("unexpected report: %+v", rep)
	}

	dest := mirror.MirroredPath(src, staging)
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", data)
	}
}

func TestMirrorDirectoryTree(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(filepath.Join(srcDir, "sub", "deeper"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"a.txt":                "aaa",
		"sub/b.txt":            "bbb",
		"sub/deeper/c.txt":     "ccc",
		"sub/deeper/empty.txt": "",
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(srcDir, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	staging := filepath.Join(tmp, "staging")
	rep, err := mirror.Mirror(fsys, srcDir, staging)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != len(files) || !rep.Clean() {
		t.Fatalf("unexpected report: %+v", rep)
	}

	for rel, content := range files {
		dest := filepath.Join(mirror.MirroredPath(srcDir, staging), rel)
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("missing mirrored file %s: %v", rel, err)
		}
		if string(data) != content {
			t.Errorf("file %s: expected %q, got %q", rel, content, data)
		}
	}
}

func TestMirrorRelativePathRejected(t *testing.T) {
	fsys := fs.NewOSFS()
	staging := filepath.Join(t.TempDir(), "staging")

	rep, err := mirror.Mirror(fsys, "relative/path", staging)
	if !errors.Is(err, mirror.ErrNotAbsolute) {
		t.Fatalf("expected ErrNotAbsolute, got %v", err)
	}
	if rep.Copied != 0 {
		t.Errorf("expected no copies, got %d", rep.Copied)
	}
	if fsys.Exists(staging) {
		t.Error("staging root should not have been created")
	}
}

func TestMirrorMissingSource(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()
	staging := filepath.Join(tmp, "staging")

	_, err := mirror.Mirror(fsys, filepath.Join(tmp, "does-not-exist"), staging)
	if !errors.Is(err, mirror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fsys.Exists(staging) {
		t.Error("staging root should not have been created")
	}
}

func TestMirrorSelfSymlinkTerminates(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "x.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(srcDir, filepath.Join(srcDir, "self")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	staging := filepath.Join(tmp, "staging")
	rep, err := mirror.Mirror(fsys, srcDir, staging)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != 1 {
		t.Errorf("expected 1 copied file, got %d", rep.Copied)
	}
	if len(rep.Skipped) != 1 {
		t.Fatalf("expected 1 skipped entry, got %+v", rep.Skipped)
	}

	dest := filepath.Join(mirror.MirroredPath(srcDir, staging), "x.txt")
	if data, err := os.ReadFile(dest); err != nil || string(data) != "hi" {
		t.Errorf("sibling file not mirrored: %v %q", err, data)
	}
}

func TestMirrorFollowsFileSymlink(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(srcDir, "real.txt")
	if err := os.WriteFile(target, []byte("linked"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(srcDir, "alias.txt")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	staging := filepath.Join(tmp, "staging")
	rep, err := mirror.Mirror(fsys, srcDir, staging)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != 2 {
		t.Errorf("expected 2 copied files, got %d", rep.Copied)
	}

	dest := filepath.Join(mirror.MirroredPath(srcDir, staging), "alias.txt")
	if data, err := os.ReadFile(dest); err != nil || string(data) != "linked" {
		t.Errorf("symlinked file not copied: %v %q", err, data)
	}
}

func TestMirrorSkipsDanglingSymlink(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "kept.txt"), []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(srcDir, "gone"), filepath.Join(srcDir, "dangling")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	staging := filepath.Join(tmp, "staging")
	rep, err := mirror.Mirror(fsys, srcDir, staging)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != 1 {
		t.Errorf("expected 1 copied file, got %d", rep.Copied)
	}
	if len(rep.Skipped) != 1 {
		t.Fatalf("expected 1 skipped entry, got %+v", rep.Skipped)
	}
}

func TestMirrorIsolatesCopyFailures(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Occupy a.txt's destination with a directory so its copy fails.
	staging := filepath.Join(tmp, "staging")
	blocked := filepath.Join(mirror.MirroredPath(srcDir, staging), "a.txt")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatal(err)
	}

	rep, err := mirror.Mirror(fsys, srcDir, staging)
	if err != nil {
		t.Fatalf("per-file failure must not abort the walk: %v", err)
	}
	if len(rep.Failed) != 1 {
		t.Fatalf("expected 1 failed entry, got %+v", rep.Failed)
	}
	if rep.Copied != 1 {
		t.Errorf("expected sibling to be copied, report: %+v", rep)
	}

	dest := filepath.Join(mirror.MirroredPath(srcDir, staging), "b.txt")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("sibling b.txt not mirrored: %v", err)
	}
}

func TestMirrorDoesNotTouchSource(t *testing.T) {
	fsys := fs.NewOSFS()
	tmp := t.TempDir()

	srcDir := filepath.Join(tmp, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(srcDir, "f.txt")
	if err := os.WriteFile(src, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := mirror.Mirror(fsys, srcDir, filepath.Join(tmp, "staging")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(src)
	if err != nil || string(data) != "original" {
		t.Fatalf("source was modified: %v %q", err, data)
	}
}
