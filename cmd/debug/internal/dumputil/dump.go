// Package dumputil provides shared output helpers for sassdump debug tool.
// It operates on evaluated CSS trees and sources loaded during compilation.
package dumputil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	zip "github.com/hidez8891/zip"

	"sassy/codemap"
	"sassy/css"
	"sassy/utils/debug"
)

// DumpTreeTxt writes evaluated tree to <stem>-tree.txt.
func DumpTreeTxt(root *css.Root, inPath, outDir string, overwrite bool) error {
	return WriteOutput(inPath, outDir, "-tree.txt", []byte(debug.DumpCSS(root)), overwrite)
}

// DumpSources writes every source loaded during compilation into
// <stem>-sources.zip.
func DumpSources(m *codemap.Map, inPath, outDir string, overwrite bool) (retErr error) {
	outPath, err := outputPath(inPath, outDir, "-sources.zip", overwrite)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, f.Close()) }()

	zw := zip.NewWriter(f)
	defer func() { retErr = errors.Join(retErr, zw.Close()) }()

	usedNames := make(map[string]int)
	for i, file := range m.Files() {
		entryName := fmt.Sprintf("%03d_%s", i, SanitizeFileComponent(filepath.Base(file.Name)))
		if count := usedNames[entryName]; count > 0 {
			entryName += fmt.Sprintf("_%d", count+1)
		}
		usedNames[entryName]++

		w, err := zw.Create(entryName)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "// %s\n%s", file.Name, file.Src); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "sources: wrote %d file(s) into %s\n", len(m.Files()), outPath)
	return nil
}

func outputPath(inPath, outDir, suffix string, overwrite bool) (string, error) {
	base := filepath.Base(inPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
	}
	outPath := filepath.Join(dir, stem+suffix)

	if _, err := os.Stat(outPath); err == nil {
		if !overwrite {
			return "", fmt.Errorf("output file already exists: %s (use -overwrite)", outPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return outPath, nil
}

// WriteOutput writes data to <stem><suffix> in either the input file's directory or outDir.
func WriteOutput(inPath, outDir, suffix string, data []byte, overwrite bool) error {
	outPath, err := outputPath(inPath, outDir, suffix, overwrite)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}

// SanitizeFileComponent cleans a string for use in a filename.
func SanitizeFileComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
