package vfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/h2non/filetype"
	zip "github.com/hidez8891/zip"
)

// ErrNotArchive is returned when file passed to Walk is not a zip archive.
var ErrNotArchive = errors.New("not a zip archive")

// sniff checks file signature before handing it to zip reader.
func sniff(archive string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	// 262 bytes is enough for any signature filetype knows
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !filetype.Is(head[:n], "zip") {
		return fmt.Errorf("%s: %w", archive, ErrNotArchive)
	}
	return nil
}

// WalkFunc is called for each file in archive visited by Walk. If an error
// is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits all files in the archive with names starting with prefix.
// Entries with path traversal components ("..") or absolute paths are
// rejected.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	if err := sniff(archive); err != nil {
		return err
	}
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// Zip loads stylesheets stored in archive under prefix into memory. Paths of
// the result are relative to prefix, so archive may serve as a load path.
func Zip(archive, prefix string) (MapFS, error) {
	files := make(MapFS)
	err := Walk(archive, prefix, func(_ string, f *zip.File) error {
		switch path.Ext(f.Name) {
		case ".scss", ".sass", ".css":
		default:
			return nil
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", f.Name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		files[strings.TrimPrefix(f.Name, prefix)] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
