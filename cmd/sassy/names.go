package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"sassy/common"
)

// defaultOutputName is used when output name template is not configured.
const defaultOutputName = "{{ .Name }}.css"

// Values is a struct that holds variables we make available for output name
// template expansion
type Values struct {
	// Name is source file base name without extension.
	Name string
	// Dir is source directory relative to compiled one, "." for top level.
	Dir string
	// Source is source path relative to compiled directory.
	Source string
	Ext    string
	Style  string
}

type outputNamer struct {
	tmpl  *template.Template
	style common.OutputStyle
}

func newOutputNamer(field string, style common.OutputStyle) (*outputNamer, error) {
	if strings.TrimSpace(field) == "" {
		field = defaultOutputName
	}
	tmpl, err := template.New("output_name").Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return nil, fmt.Errorf("unable to parse output name template: %w", err)
	}
	return &outputNamer{tmpl: tmpl, style: style}, nil
}

// expand returns destination path relative to output directory for source
// path rel.
func (n *outputNamer) expand(rel string) (string, error) {
	ext := filepath.Ext(rel)
	values := Values{
		Name:   strings.TrimSuffix(filepath.Base(rel), ext),
		Dir:    filepath.ToSlash(filepath.Dir(rel)),
		Source: filepath.ToSlash(rel),
		Ext:    strings.TrimPrefix(ext, "."),
		Style:  n.style.String(),
	}

	buf := new(bytes.Buffer)
	if err := n.tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand output name for '%s': %w", rel, err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" {
		return "", fmt.Errorf("output name for '%s' is empty", rel)
	}
	name = filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output name '%s' for '%s' points outside of destination", name, rel)
	}
	return filepath.Join(filepath.Dir(rel), name), nil
}
