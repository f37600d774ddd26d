package scopefs

import (
	"testing"
)

func TestApplyDiff(t *testing.T) {
	fs, base := newScope(t, "/jail")
	if err := fs.WriteFile("stale.txt", []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	err := fs.ApplyDiff(map[string][]byte{
		"a.txt":           []byte("a"),
		"nested/dir/b.md": []byte("b"),
		"stale.txt":       nil,
		"never-there.txt": nil,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a" {
		t.Errorf("a.txt = %q", data)
	}
	if data, err = fs.ReadFile("nested/dir/b.md"); err != nil {
		t.Fatalf("nested write should create parents: %v", err)
	} else if string(data) != "b" {
		t.Errorf("b.md = %q", data)
	}
	if _, err := fs.Stat("stale.txt"); err == nil {
		t.Error("stale.txt should have been removed")
	}

	// everything landed inside the jail
	if _, err := base.Stat("/jail/nested/dir/b.md"); err != nil {
		t.Errorf("base should see the nested write: %v", err)
	}
}

func TestApplyDiffClampsEscapes(t *testing.T) {
	fs, base := newScope(t, "/jail")

	err := fs.ApplyDiff(map[string][]byte{
		"../escape.txt": []byte("x"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := base.Stat("/jail/escape.txt"); err != nil {
		t.Errorf("escape attempt should clamp into the jail: %v", err)
	}
	if _, err := base.Stat("/escape.txt"); err == nil {
		t.Error("escape attempt must not write outside the jail")
	}
}

func TestWriteFileTruncates(t *testing.T) {
	fs, _ := newScope(t, "/jail")

	if err := fs.WriteFile("a.txt", []byte("a longer first version"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile("a.txt", []byte("short"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "short" {
		t.Errorf("rewrite did not truncate: %q", data)
	}
}
