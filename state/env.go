// Package state keeps program wide state of the command line tool: loaded
// configuration, debug report, logger and compiler settings with command
// line flags applied.
package state

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"sassy/codemap"
	"sassy/config"
	"sassy/css"
	"sassy/utils/debug"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Compiler is configured compiler section with flags of compile
	// subcommand on top of it.
	Compiler config.CompilerConfig

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// ReportCompilation puts every source loaded by one compilation into debug
// report, evaluated tree goes under "tree/" named after the entry file.
// Nothing is done when report was not requested.
func (e *LocalEnv) ReportCompilation(root *css.Root, m *codemap.Map) {
	if e.Rpt == nil || m == nil {
		return
	}
	var entry string
	for i, f := range m.Files() {
		stored := e.Rpt.StoreSource(f.Name, []byte(f.Src))
		if i == 0 {
			entry = strings.TrimPrefix(stored, "sources/")
		}
	}
	if root != nil && entry != "" {
		e.Rpt.StoreData("tree/"+entry+".txt", []byte(debug.DumpCSS(root)))
	}
	e.logger().Debug("Compilation reported", zap.Int("sources", len(m.Files())), zap.Bool("tree", root != nil))
}

func (e *LocalEnv) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log.Named("stdlog"))
}

func (e *LocalEnv) RestoreStdLog() {
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
	if e.Log != nil {
		_ = e.Log.Sync()
	}
}
