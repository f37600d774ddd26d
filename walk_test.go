package scopefs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
)

func globTree(t *testing.T) *FileSystem {
	t.Helper()
	fs, _ := newScope(t, "/jail")
	for name, content := range map[string]string{
		"a.txt":          "a",
		"b.md":           "b",
		"sub/c.txt":      "c",
		"sub/deep/d.txt": "d",
	} {
		if err := fs.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestGlob(t *testing.T) {
	fs := globTree(t)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"**/*.txt", []string{"a.txt", "sub/c.txt", "sub/deep/d.txt"}},
		{"*.md", []string{"b.md"}},
		{"sub/*.txt", []string{"sub/c.txt"}},
		{"*.go", nil},
	}

	for _, tt := range tests {
		got, err := fs.Glob(tt.pattern)
		if err != nil {
			t.Fatalf("Glob(%q): %v", tt.pattern, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Glob(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}

	if _, err := fs.Glob("["); !errors.Is(err, doublestar.ErrBadPattern) {
		t.Errorf("bad pattern error = %v, want ErrBadPattern", err)
	}
}

func TestWalk(t *testing.T) {
	fs := globTree(t)

	var visited []string
	err := fs.Walk("/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		visited = append(visited, name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"/", "/a.txt", "/b.md", "/sub", "/sub/c.txt", "/sub/deep", "/sub/deep/d.txt"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestWalkSkipDir(t *testing.T) {
	fs := globTree(t)

	var visited []string
	err := fs.Walk("/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if name == "/sub" {
			return filepath.SkipDir
		}
		visited = append(visited, name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range visited {
		if name == "/sub/c.txt" || name == "/sub/deep" {
			t.Errorf("SkipDir should have pruned %s", name)
		}
	}
}

func TestWalkMissingRoot(t *testing.T) {
	fs, _ := newScope(t, "/jail")

	err := fs.Walk("/nope", func(name string, info os.FileInfo, err error) error {
		return err
	})
	if err == nil {
		t.Error("expected the stat error to propagate")
	}

	// A callback may swallow the stat error; the walk then ends cleanly
	// without descending into the missing root.
	err = fs.Walk("/nope", func(name string, info os.FileInfo, err error) error {
		return nil
	})
	if err != nil {
		t.Errorf("swallowed stat error should end the walk cleanly: %v", err)
	}
}

func TestSub(t *testing.T) {
	fs := globTree(t)

	sub, err := fs.Sub("sub")
	if err != nil {
		t.Fatal(err)
	}

	data, err := iofs.ReadFile(sub, "c.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "c" {
		t.Errorf("c.txt = %q, want c", data)
	}

	entries, err := iofs.ReadDir(sub, ".")
	if err != nil {
		t.Fatal(err)
	}
	var listed []string
	for _, e := range entries {
		listed = append(listed, e.Name())
	}
	if !reflect.DeepEqual(listed, []string{"c.txt", "deep"}) {
		t.Errorf("ReadDir = %v, want [c.txt deep]", listed)
	}

	if _, err := sub.Open("../a.txt"); err == nil {
		t.Error("io/fs names with .. must be rejected")
	}
}
