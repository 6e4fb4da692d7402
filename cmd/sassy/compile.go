package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sassy/common"
	"sassy/compiler"
	"sassy/state"
	"sassy/vfs"
)

// applyFlags overlays command line on top of configured compiler section.
func applyFlags(env *state.LocalEnv, cmd *cli.Command) error {
	env.Compiler = env.Cfg.Compiler
	c := &env.Compiler

	if s := cmd.String("style"); s != "" {
		style, err := common.ParseOutputStyle(s)
		if err != nil {
			return fmt.Errorf("unknown output style requested: %w", err)
		}
		c.Style = style
	}
	if s := cmd.String("syntax"); s != "" {
		syntax, err := common.ParseInputSyntax(s)
		if err != nil {
			return fmt.Errorf("unknown input syntax requested: %w", err)
		}
		c.InputSyntax = syntax
	}
	if s := cmd.String("encoding"); s != "" {
		if _, err := vfs.Decode(nil, s); err != nil {
			return fmt.Errorf("unknown source encoding requested: %w", err)
		}
		c.SourceEncoding = s
	}
	c.LoadPaths = slices.Concat(c.LoadPaths, cmd.StringSlice("load-path"))
	if s := cmd.String("output-name"); s != "" {
		if _, err := newOutputNamer(s, c.Style); err != nil {
			return err
		}
		c.OutputName = s
	}
	if cmd.Bool("no-charset") {
		c.AllowsCharset = false
	}
	if cmd.Bool("quiet") {
		c.Quiet = true
	}
	if cmd.Bool("ascii") {
		c.UnicodeErrors = false
	}
	return nil
}

// runCompile is the compile subcommand.
func runCompile(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	if err := applyFlags(env, cmd); err != nil {
		return err
	}
	opts, err := env.CompilerOptions()
	if err != nil {
		return err
	}

	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	switch {
	case src == "" || src == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("unable to read STDIN: %w", err)
		}
		text, err := vfs.Decode(data, opts.Encoding)
		if err != nil {
			return err
		}
		return compileOne(env, compiler.StdinName, text, dst, opts)
	case opts.FS.IsDir(src):
		if dst == "" {
			return errors.New("destination directory is required when compiling a directory")
		}
		return compileDir(ctx, env, src, dst, opts)
	default:
		text, err := compiler.ReadSource(src, opts)
		if err != nil {
			return err
		}
		return compileOne(env, src, text, dst, opts)
	}
}

// collectSources lists stylesheets under dir in natural order, partials are
// skipped.
func collectSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".scss", ".sass":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(files))
	return files, nil
}

func compileDir(ctx context.Context, env *state.LocalEnv, dir, dst string, opts compiler.Options) error {
	files, err := collectSources(dir)
	if err != nil {
		return fmt.Errorf("unable to list '%s': %w", dir, err)
	}
	namer, err := newOutputNamer(env.Compiler.OutputName, opts.Style)
	if err != nil {
		return err
	}
	env.Log.Debug("Compiling directory", zap.String("source", dir), zap.Int("files", len(files)))

	var errs error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out, err := namer.expand(rel)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = filepath.Join(dst, out)
		text, err := compiler.ReadSource(file, opts)
		if err == nil {
			err = compileOne(env, file, text, out, opts)
		}
		if err != nil {
			// report and keep going
			env.Log.Error("Unable to compile", zap.String("source", file), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: compilation failed", file))
		}
	}
	return errs
}

// compileOne compiles text and writes result to dst, empty dst means STDOUT.
// With debug report requested all loaded sources and evaluated tree are
// stored in it.
func compileOne(env *state.LocalEnv, name, text, dst string, opts compiler.Options) error {
	root, m, err := compiler.CompileStatements(name, text, opts)
	env.ReportCompilation(root, m)
	if err != nil {
		return err
	}
	out, err := compiler.Render(root, m, opts)
	if err != nil {
		return err
	}

	if dst == "" {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", dst, err)
	}
	env.Log.Debug("Stylesheet written", zap.String("source", name), zap.String("destination", dst))
	return nil
}
