package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	zip "github.com/hidez8891/zip"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "styles.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	zipFile.Close()
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"scss/_vars.scss": "$a: 1;",
		"scss/main.scss":  "@use 'vars';",
		"docs/readme.txt": "readme",
	})

	t.Run("prefix", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, "scss/", func(archive string, file *zip.File) error {
			if archive != zipPath {
				t.Errorf("archive = %s, want %s", archive, zipPath)
			}
			visited = append(visited, file.Name)
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if len(visited) != 2 {
			t.Errorf("visited %d files, want 2", len(visited))
		}
	})

	t.Run("walkFn returns error", func(t *testing.T) {
		expectedErr := errors.New("test error")
		err := Walk(zipPath, "", func(string, *zip.File) error { return expectedErr })
		if !errors.Is(err, expectedErr) {
			t.Errorf("Walk() error = %v, want %v", err, expectedErr)
		}
	})

	t.Run("invalid archive", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(bad, []byte("not a zip file"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := Walk(bad, "", func(string, *zip.File) error { return nil }); !errors.Is(err, ErrNotArchive) {
			t.Errorf("Walk() error = %v, want %v", err, ErrNotArchive)
		}
	})
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"../evil.scss": "a {}"})
	if err := Walk(zipPath, "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("Expected error for path traversal entry")
	}
}

func TestZip(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"lib/_vars.scss":      "$a: 1;",
		"lib/theme/main.sass": "a\n  b: c",
		"lib/notes.txt":       "skip me",
	})
	fsys, err := Zip(zipPath, "lib/")
	if err != nil {
		t.Fatalf("Zip: %v", err)
	}
	if !fsys.IsFile("_vars.scss") || !fsys.IsFile("theme/main.sass") {
		t.Errorf("missing stylesheets: %v", fsys)
	}
	if fsys.IsFile("notes.txt") {
		t.Error("non stylesheet loaded")
	}
	if !fsys.IsDir("theme") {
		t.Error("theme should be a directory")
	}
}

func TestMapFS(t *testing.T) {
	fsys := MapFS{"a/b.scss": "x"}
	if data, err := fsys.Read("a/./b.scss"); err != nil || string(data) != "x" {
		t.Errorf("Read = %q, %v", data, err)
	}
	if _, err := fsys.Read("nope.scss"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist, got %v", err)
	}
	if !fsys.IsDir("a") || fsys.IsDir("a/b.scss") {
		t.Error("IsDir mismatch")
	}
}

func TestOverlayMount(t *testing.T) {
	lib := MapFS{"_x.scss": "$c: red;"}.Mount("/opt/lib.zip")
	fsys := Overlay{Null{}, lib, MapFS{"main.scss": "@use 'x';"}}
	if !fsys.IsFile("/opt/lib.zip/_x.scss") || !fsys.IsDir("/opt/lib.zip") {
		t.Error("mounted files are not visible")
	}
	if data, err := fsys.Read("main.scss"); err != nil || string(data) != "@use 'x';" {
		t.Errorf("Read = %q, %v", data, err)
	}
	if _, err := fsys.Read("nope.scss"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist, got %v", err)
	}
}

func TestOS(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "x.scss")
	if err := os.WriteFile(name, []byte("a {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	var fsys FS = OS{}
	if !fsys.IsFile(name) || fsys.IsDir(name) || !fsys.IsDir(dir) {
		t.Error("OS file checks failed")
	}
	if (Null{}).IsFile(name) {
		t.Error("Null reports files")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		charset string
		want    string
	}{
		{"plain", []byte("a{}"), "", "a{}"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "é"...), "", "é"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'a', 0, '{', 0, '}', 0}, "", "a{}"},
		{"latin1", []byte{'c', 0xE9}, "ISO-8859-1", "cé"},
		{"invalid utf8", []byte{'a', 0xFF}, "utf-8", "a\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.charset)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Decode([]byte("x"), "no-such-charset"); err == nil {
		t.Error("expected error for unknown charset")
	}
}
