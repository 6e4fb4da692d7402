// Package codemap keeps track of the source files of a single compilation and
// resolves byte spans back into human readable locations.
package codemap

import (
	"sort"
	"strings"

	parse "github.com/tdewolff/parse/v2"
)

// Span is a half open byte range [Lo, Hi) in the global offset space of a Map.
// The zero Span means "no location".
type Span struct {
	Lo, Hi int
}

// IsZero reports whether span carries no location.
func (s Span) IsZero() bool {
	return s.Lo == 0 && s.Hi == 0
}

// To returns span covering both s and o.
func (s Span) To(o Span) Span {
	switch {
	case s.IsZero():
		return o
	case o.IsZero():
		return s
	}
	if o.Lo < s.Lo {
		s.Lo = o.Lo
	}
	if o.Hi > s.Hi {
		s.Hi = o.Hi
	}
	return s
}

// File is a single source registered with a Map.
type File struct {
	Name string
	Src  string
	base int
}

// Base returns global offset of the first byte of the file.
func (f *File) Base() int {
	return f.base
}

// Span converts file local offsets into a global span.
func (f *File) Span(lo, hi int) Span {
	return Span{Lo: f.base + lo, Hi: f.base + hi}
}

// Text returns source text covered by span, span must belong to file.
func (f *File) Text(s Span) string {
	lo, hi := s.Lo-f.base, s.Hi-f.base
	if lo < 0 || hi > len(f.Src) || lo > hi {
		return ""
	}
	return f.Src[lo:hi]
}

// Map owns all files of one compilation and hands out non overlapping
// global offset ranges.
type Map struct {
	files []*File
	next  int
}

// New returns empty map. Offsets start at 1 so that zero span stays
// distinguishable from the first byte of the first file.
func New() *Map {
	return &Map{next: 1}
}

// AddFile registers source and returns its File.
func (m *Map) AddFile(name, src string) *File {
	f := &File{Name: name, Src: src, base: m.next}
	m.files = append(m.files, f)
	// one extra position for end of file spans
	m.next += len(src) + 1
	return f
}

// Files returns registered files in registration order.
func (m *Map) Files() []*File {
	return m.files
}

// File finds file span points into.
func (m *Map) File(s Span) *File {
	if s.IsZero() || len(m.files) == 0 {
		return nil
	}
	i := sort.Search(len(m.files), func(i int) bool { return m.files[i].base > s.Lo }) - 1
	if i < 0 {
		return nil
	}
	f := m.files[i]
	if s.Lo-f.base > len(f.Src) {
		return nil
	}
	return f
}

// Loc is resolved location of a span.
type Loc struct {
	File    string
	Line    int // 1-based
	Col     int // 1-based
	EndLine int
	EndCol  int
	// Text of the first line covered by the span without line terminator.
	LineText string
	// Byte offset of the span start inside LineText and number of bytes of
	// the span on that line.
	Offset, Width int
}

// LookUp resolves span. Second value is false if span does not belong to
// any file of the map.
func (m *Map) LookUp(s Span) (Loc, bool) {
	f := m.File(s)
	if f == nil {
		return Loc{}, false
	}
	lo, hi := s.Lo-f.base, s.Hi-f.base
	if hi > len(f.Src) {
		hi = len(f.Src)
	}
	if hi < lo {
		hi = lo
	}

	loc := Loc{File: f.Name}
	loc.Line, loc.Col, _ = parse.Position(strings.NewReader(f.Src), lo)
	loc.EndLine, loc.EndCol, _ = parse.Position(strings.NewReader(f.Src), hi)

	start := strings.LastIndexByte(f.Src[:lo], '\n') + 1
	end := strings.IndexByte(f.Src[lo:], '\n')
	if end < 0 {
		end = len(f.Src)
	} else {
		end += lo
	}
	loc.LineText = strings.TrimRight(f.Src[start:end], "\r")
	loc.Offset = lo - start
	loc.Width = min(hi, start+len(loc.LineText)) - lo
	if loc.Width < 0 {
		loc.Width = 0
	}
	return loc, true
}
