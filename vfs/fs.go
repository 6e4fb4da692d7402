// Package vfs abstracts file system used to resolve and read imported
// stylesheets.
package vfs

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FS is read only view of files known to the compiler. Paths use the host
// separator for OS and slash for everything else.
type FS interface {
	Read(name string) ([]byte, error)
	IsFile(name string) bool
	IsDir(name string) bool
}

// OS is the host file system.
type OS struct{}

func (OS) Read(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OS) IsFile(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

func (OS) IsDir(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.IsDir()
}

// Null has no files, compilations from string use it by default.
type Null struct{}

func (Null) Read(name string) ([]byte, error) {
	return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
}

func (Null) IsFile(string) bool { return false }
func (Null) IsDir(string) bool  { return false }

// MapFS keeps files in memory, keys are slash separated paths.
type MapFS map[string]string

func clean(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

func (m MapFS) Read(name string) ([]byte, error) {
	src, ok := m[clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return []byte(src), nil
}

func (m MapFS) IsFile(name string) bool {
	_, ok := m[clean(name)]
	return ok
}

func (m MapFS) IsDir(name string) bool {
	dir := clean(name)
	if dir == "." {
		return len(m) > 0
	}
	dir += "/"
	for k := range m {
		if strings.HasPrefix(k, dir) {
			return true
		}
	}
	return false
}

// Mount returns copy of m with every path placed under dir.
func (m MapFS) Mount(dir string) MapFS {
	out := make(MapFS, len(m))
	for k, v := range m {
		out[clean(path.Join(filepath.ToSlash(dir), k))] = v
	}
	return out
}

// Overlay looks files up in its layers in order, first match wins.
type Overlay []FS

func (o Overlay) Read(name string) ([]byte, error) {
	for _, l := range o {
		if l.IsFile(name) {
			return l.Read(name)
		}
	}
	return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
}

func (o Overlay) IsFile(name string) bool {
	for _, l := range o {
		if l.IsFile(name) {
			return true
		}
	}
	return false
}

func (o Overlay) IsDir(name string) bool {
	for _, l := range o {
		if l.IsDir(name) {
			return true
		}
	}
	return false
}
