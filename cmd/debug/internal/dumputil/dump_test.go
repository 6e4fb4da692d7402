package dumputil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	zip "github.com/hidez8891/zip"

	"sassy/codemap"
	"sassy/css"
	"sassy/selector"
	"sassy/value"
)

func TestSanitizeFileComponent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "unknown"},
		{"  _base.scss ", "_base.scss"},
		{"a b/c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := SanitizeFileComponent(tt.in); got != tt.want {
			t.Errorf("SanitizeFileComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "main.scss")

	if err := WriteOutput(in, "", "-tree.txt", []byte("1"), false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if err := WriteOutput(in, "", "-tree.txt", []byte("2"), false); err == nil {
		t.Error("expected error for existing output without overwrite")
	}
	if err := WriteOutput(in, "", "-tree.txt", []byte("3"), true); err != nil {
		t.Fatalf("WriteOutput() with overwrite error = %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "main-tree.txt")); string(data) != "3" {
		t.Errorf("output = %q", data)
	}
}

func TestDumpSources(t *testing.T) {
	dir := t.TempDir()
	m := codemap.New()
	m.AddFile("/x/main.scss", "@use 'a';")
	m.AddFile("/x/_a.scss", "$a: 1;")

	if err := DumpSources(m, filepath.Join(dir, "main.scss"), "", false); err != nil {
		t.Fatalf("DumpSources() error = %v", err)
	}

	r, err := zip.OpenReader(filepath.Join(dir, "main-sources.zip"))
	if err != nil {
		t.Fatalf("unable to open archive: %v", err)
	}
	defer r.Close()
	if len(r.File) != 2 {
		t.Fatalf("archive has %d entries", len(r.File))
	}
	if r.File[1].Name != "001__a.scss" {
		t.Errorf("entry name = %q", r.File[1].Name)
	}
	rc, err := r.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "// /x/_a.scss\n$a: 1;" {
		t.Errorf("entry content = %q", data)
	}
}

func TestDumpSQLite(t *testing.T) {
	dir := t.TempDir()
	m := codemap.New()
	f := m.AddFile("main.scss", "a {\n  b: c;\n}\n")
	root := &css.Root{Block: css.Block{Body: []css.Node{
		&css.RuleSet{
			Selector: mustSelector(t, "a"),
			Block: css.Block{Body: []css.Node{
				&css.Style{Name: "b", Value: value.Unquoted("c"), Base: css.Base{Span: f.Span(6, 10)}},
			}},
			Base: css.Base{Span: f.Span(0, 1), GroupEnd: true},
		},
	}}}

	in := filepath.Join(dir, "main.scss")
	if err := DumpSQLite(root, m, in, "", false); err != nil {
		t.Fatalf("DumpSQLite() error = %v", err)
	}
	name := filepath.Join(dir, "main.sqlite")
	head, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !IsDatabase(head) || IsDatabase([]byte("a { b: c; }")) {
		t.Error("IsDatabase() does not recognize database")
	}

	summary, err := SummarizeSQLite(name)
	if err != nil {
		t.Fatalf("SummarizeSQLite() error = %v", err)
	}
	for _, want := range []string{"  source main.scss (", "  RuleSet: 1\n", "  Style: 1\n"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary lacks %q:\n%s", want, summary)
		}
	}

	if err := DumpSQLite(root, m, in, "", false); err == nil {
		t.Error("expected error for existing database without overwrite")
	}
	if err := DumpSQLite(root, m, in, "", true); err != nil {
		t.Errorf("DumpSQLite() with overwrite error = %v", err)
	}
}

func mustSelector(t *testing.T, src string) *selector.List {
	t.Helper()
	l, err := selector.Parse(src, false, false)
	if err != nil {
		t.Fatal(err)
	}
	return l
}
