package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	zip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"sassy/common"
	"sassy/compiler"
	"sassy/config"
	"sassy/vfs"
)

func TestSplitArchive(t *testing.T) {
	tests := []struct {
		entry, archive, prefix string
	}{
		{"styles.zip", "styles.zip", ""},
		{"lib/styles.zip:scss/", "lib/styles.zip", "scss/"},
		{"a.zip:b.zip:c/", "a.zip:b.zip", "c/"},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			archive, prefix := splitArchive(tt.entry)
			if archive != tt.archive || prefix != tt.prefix {
				t.Errorf("splitArchive(%q) = %q, %q", tt.entry, archive, prefix)
			}
		})
	}
}

func TestCompilerOptions_Archive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "lib.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, err := w.Create("scss/_colors.scss")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("$main: #123457;")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	main := filepath.Join(dir, "main.scss")
	if err := os.WriteFile(main, []byte("@use 'colors';\na { color: colors.$main; }\n"), 0644); err != nil {
		t.Fatal(err)
	}

	env := &LocalEnv{Log: zap.NewNop(), Compiler: config.CompilerConfig{
		Style:    common.OutputStyleCompressed,
		Archives: []string{archive + ":scss/"},
		MaxDepth: 100,
	}}
	opts, err := env.CompilerOptions()
	if err != nil {
		t.Fatalf("CompilerOptions() error = %v", err)
	}
	if len(opts.LoadPaths) != 1 || opts.LoadPaths[0] != archive {
		t.Errorf("LoadPaths = %v", opts.LoadPaths)
	}

	out, err := compiler.FromPath(main, opts)
	if err != nil {
		t.Fatalf("FromPath() error = %v", err)
	}
	if want := "a{color:#123457}"; out != want {
		t.Errorf("FromPath() = %q, want %q", out, want)
	}
}

func TestCompilerOptions_MissingArchive(t *testing.T) {
	env := &LocalEnv{Compiler: config.CompilerConfig{Archives: []string{filepath.Join(t.TempDir(), "none.zip")}}}
	if _, err := env.CompilerOptions(); err == nil {
		t.Error("expected error for missing archive")
	}
}

func TestCompilerOptions_NotArchive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "fake.zip")
	if err := os.WriteFile(name, []byte("$x: 1;"), 0644); err != nil {
		t.Fatal(err)
	}
	env := &LocalEnv{Compiler: config.CompilerConfig{Archives: []string{name}}}
	if _, err := env.CompilerOptions(); !errors.Is(err, vfs.ErrNotArchive) {
		t.Errorf("CompilerOptions() error = %v, want %v", err, vfs.ErrNotArchive)
	}
}
