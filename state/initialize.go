package state

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sassy/compiler"
	"sassy/vfs"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// splitArchive separates "file.zip:prefix/" into archive name and prefix
// inside of it.
func splitArchive(entry string) (string, string) {
	if i := strings.LastIndex(entry, ".zip:"); i >= 0 {
		return entry[:i+4], entry[i+5:]
	}
	return entry, ""
}

// CompilerOptions turns compiler configuration into options of a single
// compilation. Configured archives are loaded into memory and mounted as
// additional load paths.
func (e *LocalEnv) CompilerOptions() (compiler.Options, error) {
	c := e.Compiler
	opts := compiler.Options{
		Style:         c.Style,
		InputSyntax:   c.InputSyntax,
		LoadPaths:     append([]string(nil), c.LoadPaths...),
		Logger:        e.Log,
		Quiet:         c.Quiet,
		UnicodeErrors: c.UnicodeErrors,
		AllowsCharset: c.AllowsCharset,
		MaxDepth:      c.MaxDepth,
		Encoding:      c.SourceEncoding,
	}

	layers := vfs.Overlay{vfs.OS{}}
	for _, entry := range c.Archives {
		archive, prefix := splitArchive(entry)
		files, err := vfs.Zip(archive, prefix)
		if err != nil {
			return opts, fmt.Errorf("unable to load archive '%s': %w", entry, err)
		}
		e.logger().Debug("Archive mounted", zap.String("archive", archive), zap.String("prefix", prefix), zap.Int("files", len(files)))
		layers = append(layers, files.Mount(archive))
		opts.LoadPaths = append(opts.LoadPaths, archive)
	}
	opts.FS = layers
	return opts, nil
}
