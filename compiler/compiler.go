// Package compiler is the public entry point: it turns Sass sources into CSS
// text running parser, evaluator and serializer in sequence.
package compiler

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sassy/codemap"
	"sassy/common"
	"sassy/css"
	"sassy/diag"
	"sassy/evaluate"
	"sassy/parse"
	"sassy/vfs"
)

// StdinName is the file name reported for sources compiled from string.
const StdinName = "stdin"

// Options controls single compilation.
type Options struct {
	Style common.OutputStyle
	// InputSyntax of the entry file, auto selects it by file extension and
	// falls back to SCSS.
	InputSyntax common.InputSyntax
	// LoadPaths are searched for imports after the importing file directory.
	LoadPaths []string
	// FS is used to read imported files and the entry file of FromPath.
	FS     vfs.FS
	Logger *zap.Logger
	// Quiet suppresses @warn and @debug output.
	Quiet bool
	// UnicodeErrors selects box drawing characters in formatted errors.
	UnicodeErrors bool
	// AllowsCharset permits @charset or BOM prefix for non ASCII output.
	AllowsCharset bool
	MaxDepth      int
	// Encoding of source files without BOM, empty means UTF-8.
	Encoding string
}

// DefaultOptions returns options used by the command line tool when nothing
// is configured.
func DefaultOptions() Options {
	return Options{
		Style:         common.OutputStyleExpanded,
		InputSyntax:   common.InputSyntaxAuto,
		FS:            vfs.OS{},
		UnicodeErrors: true,
		AllowsCharset: true,
		MaxDepth:      evaluate.DefaultMaxDepth,
	}
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Error is compilation failure with resolved location.
type Error struct {
	Kind    diag.Kind
	Message string
	// Loc is zero when error does not have source position.
	Loc codemap.Loc
	// Formatted is complete report with source excerpt and stack trace.
	Formatted string
}

func (e *Error) Error() string {
	if e.Formatted != "" {
		return e.Formatted
	}
	return "Error: " + e.Message
}

// FromString compiles SCSS source. Without opts.FS nothing can be imported.
func FromString(src string, opts Options) (string, error) {
	m := codemap.New()
	root, err := compile(m, StdinName, src, opts)
	if err != nil {
		return "", err
	}
	return Render(root, m, opts)
}

// FromPath compiles file read from opts.FS, host file system is used when
// it is not set.
func FromPath(path string, opts Options) (string, error) {
	if opts.FS == nil {
		opts.FS = vfs.OS{}
	}
	m := codemap.New()
	src, err := readSource(path, opts)
	if err != nil {
		return "", err
	}
	root, err := compile(m, path, src, opts)
	if err != nil {
		return "", err
	}
	return Render(root, m, opts)
}

// CompileStatements evaluates source and returns resulting tree without
// serializing it. Name is used for error reporting and relative imports.
// Returned map holds every loaded source even when compilation fails.
func CompileStatements(name, src string, opts Options) (*css.Root, *codemap.Map, error) {
	m := codemap.New()
	root, err := compile(m, name, src, opts)
	if err != nil {
		return nil, m, err
	}
	return root, m, nil
}

// ReadSource reads and decodes file the way FromPath does.
func ReadSource(path string, opts Options) (string, error) {
	return readSource(path, opts)
}

func readSource(path string, opts Options) (string, error) {
	if opts.FS == nil {
		opts.FS = vfs.OS{}
	}
	data, err := opts.FS.Read(path)
	if err != nil {
		return "", &Error{Kind: diag.ImportError, Message: err.Error(), Formatted: "Error: " + err.Error()}
	}
	src, err := vfs.Decode(data, opts.Encoding)
	if err != nil {
		return "", &Error{Kind: diag.ImportError, Message: err.Error(), Formatted: "Error: " + err.Error()}
	}
	return src, nil
}

func compile(m *codemap.Map, name, src string, opts Options) (*css.Root, error) {
	log := opts.logger().Named("compiler")
	start := time.Now()
	log.Debug("Compilation started", zap.String("source", name), zap.Stringer("style", opts.Style))

	sheet, err := parse.File(m, name, src, opts.InputSyntax, opts.Logger)
	if err != nil {
		return nil, newError(m, err, opts.UnicodeErrors)
	}

	v := evaluate.New(m, evaluate.Options{
		LoadPaths: opts.LoadPaths,
		FS:        opts.FS,
		Encoding:  opts.Encoding,
		Quiet:     opts.Quiet,
		MaxDepth:  opts.MaxDepth,
	}, opts.Logger)
	root, err := v.Run(sheet)
	if err != nil {
		return nil, newError(m, err, opts.UnicodeErrors)
	}
	log.Debug("Compilation done", zap.String("source", name), zap.Duration("elapsed", time.Since(start)))
	return root, nil
}

// Render serializes tree produced by CompileStatements, m is used to resolve
// source positions.
func Render(root *css.Root, m *codemap.Map, opts Options) (string, error) {
	out, err := css.Serialize(root, opts.Style, css.WithCharset(opts.AllowsCharset), css.WithSources(m))
	if err != nil {
		return "", newError(m, err, opts.UnicodeErrors)
	}
	return out, nil
}

// newError resolves diagnostic locations. Trace line k reports the call site
// of frame k-1 under the name of frame k, the outermost one is the root.
func newError(m *codemap.Map, err error, unicode bool) *Error {
	var de *diag.Error
	if !errors.As(err, &de) {
		return &Error{Kind: diag.TypeError, Message: err.Error(), Formatted: "Error: " + err.Error()}
	}
	e := &Error{Kind: de.Kind, Message: de.Message}
	loc, ok := m.LookUp(de.Span)
	if !ok {
		e.Formatted = "Error: " + de.Message
		return e
	}
	e.Loc = loc

	trace := make([]diag.TraceLine, 0, len(de.Trace)+1)
	where := loc
	for _, f := range de.Trace {
		trace = append(trace, diag.TraceLine{Where: position(where), Name: f.Name})
		if l, ok := m.LookUp(f.Span); ok {
			where = l
		}
	}
	trace = append(trace, diag.TraceLine{Where: position(where)})
	e.Formatted = diag.Format(de.Message, loc, trace, unicode)
	return e
}

func position(loc codemap.Loc) string {
	return fmt.Sprintf("%s %d:%d", loc.File, loc.Line, loc.Col)
}
