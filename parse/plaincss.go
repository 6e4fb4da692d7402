package parse

import (
	"go.uber.org/zap"

	"sassy/ast"
	"sassy/codemap"
)

// CSS parses plain CSS. Source is registered in m as is and parsed with every
// Sass feature disabled, Sass only statements are reported as errors.
func CSS(m *codemap.Map, name, src string, log *zap.Logger) (*ast.Stylesheet, error) {
	p := newParser(m.AddFile(name, src), log)
	p.plain = true
	return p.stylesheet(name)
}
