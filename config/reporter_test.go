package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReportClose_WritesEntries(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	logName := filepath.Join(dir, "final.log")
	if err := os.WriteFile(logName, []byte("log line"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r.Store("final.log", logName)
	r.Store("missing.log", filepath.Join(dir, "nope.log"))
	r.StoreData("tree/main.txt", []byte("Root\n"))
	first := r.StoreSource("styles/_Base.scss", []byte("a {}"))
	second := r.StoreSource("styles/_Base.scss", []byte("b {}"))

	if rest, ok := strings.CutPrefix(first, "sources/"); !ok || strings.Contains(rest, "/") || !strings.HasSuffix(rest, ".scss") {
		t.Errorf("StoreSource() = %q", first)
	}
	if second == first || !strings.HasSuffix(second, ".scss") {
		t.Errorf("second StoreSource() = %q, want versioned name", second)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	files := readArchive(t, conf.Destination)
	if files["final.log"] != "log line" {
		t.Errorf("final.log = %q", files["final.log"])
	}
	if files["tree/main.txt"] != "Root\n" || files[first] != "a {}" || files[second] != "b {}" {
		t.Errorf("unexpected archive content: %v", files)
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file should be skipped")
	}
	if !strings.Contains(files["MANIFEST"], "final.log") {
		t.Errorf("MANIFEST does not list entries: %q", files["MANIFEST"])
	}
}

func TestReportStoreData_Overwrite(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("x", []byte("1"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic on overwrite")
		}
	}()
	r.StoreData("x", []byte("2"))
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" || r.StoreSource("a.scss", nil) != "" {
		t.Error("nil report should ignore calls")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
