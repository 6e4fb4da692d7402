package state

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	zip "github.com/hidez8891/zip"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sassy/common"
	"sassy/compiler"
	"sassy/config"
	"sassy/vfs"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}

	env.Compiler = config.CompilerConfig{Style: common.OutputStyleCompressed, LoadPaths: []string{"lib"}}
	again := EnvFromContext(ctx)
	if again != env || again.Compiler.Style != common.OutputStyleCompressed || len(again.Compiler.LoadPaths) != 1 {
		t.Errorf("compiler settings are not shared through context: %+v", again.Compiler)
	}

	time.Sleep(5 * time.Millisecond)
	if env.Uptime() < 5*time.Millisecond {
		t.Error("Uptime too small")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_StdLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := &LocalEnv{Log: zap.New(core)}

	env.RedirectStdLog()
	log.Print("from standard logger")
	env.RestoreStdLog()

	entries := logs.FilterMessage("from standard logger").All()
	if len(entries) != 1 || entries[0].LoggerName != "stdlog" {
		t.Errorf("redirected entries = %+v", entries)
	}
	if env.restoreStdLog != nil {
		t.Error("restore function kept after RestoreStdLog()")
	}

	// no logger, nothing to redirect
	env = &LocalEnv{}
	env.RedirectStdLog()
	env.RestoreStdLog()
}

func readReport(t *testing.T, name string) map[string]string {
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
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestLocalEnv_ReportCompilation(t *testing.T) {
	conf := config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	env := &LocalEnv{Rpt: rpt, Log: zap.NewNop()}

	opts := compiler.DefaultOptions()
	opts.FS = vfs.MapFS{"_vars.scss": "$w: 1px;"}
	root, m, err := compiler.CompileStatements("main.scss", "@use 'vars';\na { b: vars.$w; }\n", opts)
	if err != nil {
		t.Fatalf("CompileStatements() error: %v", err)
	}
	env.ReportCompilation(root, m)

	// failed compilation still reports its sources
	_, m, err = compiler.CompileStatements("broken.scss", "a { b: $x; }", opts)
	if err == nil {
		t.Fatal("expected compilation error")
	}
	env.ReportCompilation(nil, m)

	if err := rpt.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}
	files := readReport(t, conf.Destination)
	if files["sources/main.scss"] != "@use 'vars';\na { b: vars.$w; }\n" {
		t.Errorf("entry source = %q", files["sources/main.scss"])
	}
	if files["sources/broken.scss"] != "a { b: $x; }" {
		t.Errorf("broken source = %q", files["sources/broken.scss"])
	}
	if files["tree/main.scss.txt"] == "" {
		t.Error("evaluated tree not reported")
	}
	if _, ok := files["tree/broken.scss.txt"]; ok {
		t.Error("tree reported for failed compilation")
	}
	var imported bool
	for name := range files {
		if strings.HasPrefix(name, "sources/") && strings.HasSuffix(name, "vars.scss") {
			imported = true
		}
	}
	if !imported {
		t.Errorf("imported module not reported: %v", files)
	}
}

func TestLocalEnv_ReportCompilation_NoReport(t *testing.T) {
	env := &LocalEnv{}
	root, m, err := compiler.CompileStatements("main.scss", "a { b: c; }", compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	// should not panic
	env.ReportCompilation(root, m)
}
