package evaluate

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sassy/ast"
	"sassy/codemap"
	"sassy/common"
	"sassy/css"
	"sassy/diag"
	"sassy/parse"
	"sassy/scope"
	"sassy/vfs"
)

func (v *Visitor) importRule(n *ast.ImportRule) error {
	for _, imp := range n.Imports {
		var err error
		switch t := imp.(type) {
		case ast.DynamicImport:
			err = v.dynamicImport(t)
		case ast.StaticImport:
			err = v.staticImport(t)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *Visitor) dynamicImport(imp ast.DynamicImport) error {
	path, err := v.resolve(imp.URL)
	if err != nil {
		return diag.WithSpan(err, imp.Span)
	}
	if v.active[path] {
		return diag.At(diag.ImportError, imp.Span, "This file is already being loaded.")
	}
	return v.withFrame("@import", imp.Span, func() error {
		sheet, err := v.loadStylesheet(path)
		if err != nil {
			return err
		}
		v.active[path] = true
		defer delete(v.active, path)

		oldURL, oldPlain := v.url, v.plain
		v.url, v.plain = path, sheet.Plain
		v.importDepth++
		defer func() {
			v.url, v.plain = oldURL, oldPlain
			v.importDepth--
		}()
		return v.children(sheet.Body)
	})
}

func (v *Visitor) staticImport(imp ast.StaticImport) error {
	url, err := v.interpolate(imp.URL, false)
	if err != nil {
		return err
	}
	mods, err := v.interpolate(imp.Modifiers, true)
	if err != nil {
		return err
	}
	v.addImport(&css.Import{Base: css.Base{Span: imp.Span}, URL: url, Modifiers: mods})
	return nil
}

// addImport places plain CSS import, at the top level imports go before
// any other output.
func (v *Visitor) addImport(node *css.Import) {
	switch {
	case v.parent != css.Parent(v.root):
		v.parent.Append(node)
	case v.endOfImports == len(v.root.Body):
		v.root.Append(node)
		v.endOfImports++
	default:
		v.outOfOrder = append(v.outOfOrder, node)
	}
}

func (v *Visitor) loadStylesheet(path string) (*ast.Stylesheet, error) {
	if sheet, ok := v.sheets[path]; ok {
		return sheet, nil
	}
	data, err := v.opts.FS.Read(path)
	if err != nil {
		return nil, diag.New(diag.ImportError, "Unable to read %s: %v", path, err)
	}
	src, err := vfs.Decode(data, v.opts.Encoding)
	if err != nil {
		return nil, diag.New(diag.ImportError, "%v", err)
	}
	v.log.Debug("Loading stylesheet", zap.String("path", path))
	sheet, err := parse.File(v.files, path, src, common.InputSyntaxAuto, v.log)
	if err != nil {
		return nil, err
	}
	v.sheets[path] = sheet
	return sheet, nil
}

// resolve finds file for url relative to the current stylesheet and then in
// load paths.
func (v *Visitor) resolve(url string) (string, error) {
	var bases []string
	if !filepath.IsAbs(url) {
		base := "."
		if v.url != "" {
			base = filepath.Dir(v.url)
		}
		bases = append(bases, base)
		bases = append(bases, v.opts.LoadPaths...)
	}
	for _, base := range bases {
		found, err := v.resolveIn(filepath.Join(base, filepath.FromSlash(url)))
		if err != nil || found != "" {
			return found, err
		}
	}
	if len(bases) == 0 {
		found, err := v.resolveIn(url)
		if err != nil || found != "" {
			return found, err
		}
	}
	return "", diag.New(diag.ImportError, "Can't find stylesheet to import.")
}

func (v *Visitor) resolveIn(path string) (string, error) {
	found, err := v.withExtensions(path)
	if err != nil || found != "" {
		return found, err
	}
	if v.opts.FS.IsDir(path) {
		return v.withExtensions(filepath.Join(path, "index"))
	}
	return "", nil
}

func (v *Visitor) withExtensions(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".scss", ".sass", ".css":
		return v.exactlyOne(v.candidates(path))
	}
	found := append(v.candidates(path+".sass"), v.candidates(path+".scss")...)
	if len(found) == 0 {
		found = v.candidates(path + ".css")
	}
	return v.exactlyOne(found)
}

// candidates returns existing files among partial and plain names.
func (v *Visitor) candidates(path string) []string {
	var out []string
	dir, base := filepath.Split(path)
	if partial := filepath.Join(dir, "_"+base); v.opts.FS.IsFile(partial) {
		out = append(out, partial)
	}
	if v.opts.FS.IsFile(path) {
		out = append(out, filepath.Clean(path))
	}
	return out
}

func (v *Visitor) exactlyOne(found []string) (string, error) {
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	}
	return "", diag.New(diag.ImportError, "It's not clear which file to import. Found:\n  %s", strings.Join(found, "\n  "))
}

// loadModule evaluates module once per compilation, later loads return the
// cached module.
func (v *Visitor) loadModule(url, rule string, span codemap.Span, cfg *configuration) (*scope.Module, error) {
	if name, ok := strings.CutPrefix(url, "sass:"); ok {
		if cfg.isExplicit() {
			return nil, diag.At(diag.ImportError, cfg.original().span, "Built-in modules can't be configured.")
		}
		m := builtinModule(name)
		if m == nil {
			return nil, diag.At(diag.ImportError, span, "Can't find stylesheet to import.")
		}
		return m, nil
	}

	path, err := v.resolve(url)
	if err != nil {
		return nil, diag.WithSpan(err, span)
	}
	if m, ok := v.modules[path]; ok {
		if cfg.isExplicit() && !v.configs[path].sameOriginal(cfg) {
			return nil, diag.At(diag.ImportError, cfg.original().span,
				"This module was already loaded, so it can't be configured using \"with\".")
		}
		return m, nil
	}
	if v.active[path] {
		return nil, diag.At(diag.ImportError, span, "Module loop: this module is already being loaded.")
	}

	var m *scope.Module
	err = v.withFrame(rule, span, func() error {
		sheet, err := v.loadStylesheet(path)
		if err != nil {
			return err
		}
		v.active[path] = true
		defer delete(v.active, path)

		v.log.Debug("Evaluating module", zap.String("url", url), zap.String("path", path))
		child := v.compilation.visitor(path, cfg)
		if err := child.stylesheet(sheet); err != nil {
			return err
		}
		m = child.env.ToModule(path)
		m.CSS = child.root
		m.Upstream = child.upstream
		return nil
	})
	if err != nil {
		return nil, err
	}
	v.modules[path] = m
	v.configs[path] = cfg
	return m, nil
}

func (v *Visitor) addUpstream(m *scope.Module) {
	if m.IsBuiltin() {
		return
	}
	for _, u := range v.upstream {
		if u == m {
			return
		}
	}
	v.upstream = append(v.upstream, m)
}

// defaultNamespace is basename of url without extensions.
func defaultNamespace(url string) string {
	if name, ok := strings.CutPrefix(url, "sass:"); ok {
		return name
	}
	base := url
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

func (v *Visitor) useRule(n *ast.UseRule) error {
	cfg := emptyConfig()
	if len(n.Config) > 0 {
		var err error
		if cfg, err = v.explicitConfig(n.Config, n.Span); err != nil {
			return err
		}
	}
	m, err := v.loadModule(n.URL, "@use", n.Span, cfg)
	if err != nil {
		return err
	}

	ns := n.Namespace
	if ns == "" {
		ns = defaultNamespace(n.URL)
	}
	if ns != "*" {
		if existing, err := v.env.Namespace(ns); err == nil && existing == m {
			return nil
		}
	}
	if err := v.env.AddNamespace(ns, m); err != nil {
		return diag.WithSpan(err, n.Span)
	}
	v.addUpstream(m)
	return assertConfigEmpty(cfg)
}

func (v *Visitor) forwardRule(n *ast.ForwardRule) error {
	adjusted := v.config.throughForward(n.Prefix, n.Show, n.Hide)

	var m *scope.Module
	if len(n.Config) > 0 {
		cfg, err := v.forwardConfig(adjusted, n)
		if err != nil {
			return err
		}
		if m, err = v.loadModule(n.URL, "@forward", n.Span, cfg); err != nil {
			return err
		}
		var except []string
		for _, fv := range n.Config {
			if !fv.Default {
				except = append(except, fv.Name)
			}
		}
		removeUsed(adjusted, cfg, except)
		if err := assertConfigEmpty(cfg); err != nil {
			return err
		}
	} else {
		var err error
		if m, err = v.loadModule(n.URL, "@forward", n.Span, adjusted); err != nil {
			return err
		}
	}

	fw := &scope.Forward{Module: m, Prefix: n.Prefix, Show: n.Show, Hide: n.Hide}
	v.env.AddForward(fw)
	if v.importDepth > 0 {
		// members forwarded by imported file are visible to the importer
		view := scope.New()
		view.AddForward(fw)
		v.env.AddGlobalModule(view.ToModule(m.URL))
	}
	v.addUpstream(m)
	return nil
}

// combine joins CSS of all loaded modules, upstream modules first. Plain CSS
// imports of every module are hoisted to the top.
func (v *Visitor) combine() *css.Root {
	if len(v.upstream) == 0 {
		return v.root
	}
	self := &scope.Module{URL: v.url, CSS: v.root, Upstream: v.upstream}
	var imports, rest []css.Node
	for _, m := range sortModules(self) {
		if m.CSS == nil {
			continue
		}
		body := m.CSS.Body
		i := indexAfterImports(body)
		imports = append(imports, body[:i]...)
		rest = append(rest, body[i:]...)
	}
	root := &css.Root{Base: v.root.Base}
	root.Body = append(imports, rest...)
	return root
}

// sortModules orders modules so that each one follows everything it uses.
func sortModules(root *scope.Module) []*scope.Module {
	seen := make(map[*scope.Module]bool)
	var out []*scope.Module
	var visit func(m *scope.Module)
	visit = func(m *scope.Module) {
		if seen[m] {
			return
		}
		seen[m] = true
		for _, u := range m.Upstream {
			visit(u)
		}
		out = append(out, m)
	}
	visit(root)
	return out
}

func indexAfterImports(body []css.Node) int {
	last := -1
	for i, n := range body {
		switch n.(type) {
		case *css.Import:
			last = i
		case *css.Comment:
		default:
			return last + 1
		}
	}
	return last + 1
}
