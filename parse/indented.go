package parse

import (
	"strings"
)

// translateIndented rewrites indented syntax into brace syntax keeping line
// numbers intact so locations in errors stay meaningful.
func translateIndented(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lines := strings.Split(src, "\n")
	out := make([]string, len(lines))

	var (
		stack        []int
		commentLevel = -1
		loud         bool
		loudClosed   bool
		lastComment  int
		continuation bool
		stmtIndent   int
	)
	closeComment := func() {
		if loud && !loudClosed {
			out[lastComment] += " */"
		}
		commentLevel = -1
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		lead := line[:indent]

		if commentLevel >= 0 {
			if indent > commentLevel {
				if loud {
					out[i] = line
					if strings.Contains(trimmed, "*/") {
						loudClosed = true
					}
				} else {
					out[i] = lead + "//" + trimmed
				}
				lastComment = i
				continue
			}
			closeComment()
		}

		prefix := ""
		if !continuation {
			for len(stack) > 0 && indent <= stack[len(stack)-1] {
				stack = stack[:len(stack)-1]
				prefix += "} "
			}
		}

		switch {
		case strings.HasPrefix(trimmed, "//"):
			out[i] = lead + prefix + trimmed
			commentLevel, loud, lastComment = indent, false, i
			continue
		case strings.HasPrefix(trimmed, "/*"):
			out[i] = lead + prefix + trimmed
			commentLevel, loud, lastComment = indent, true, i
			loudClosed = strings.Contains(trimmed[2:], "*/")
			continue
		}

		code, comment := splitTrailingComment(indentedStatement(trimmed))
		if !continuation {
			stmtIndent = indent
		}
		switch {
		case strings.HasSuffix(code, ","):
			continuation = true
		case nextIndent(lines, i) > stmtIndent:
			stack = append(stack, stmtIndent)
			continuation = false
			code += " {"
		default:
			continuation = false
			code += ";"
		}
		out[i] = lead + prefix + code + comment
	}
	if commentLevel >= 0 {
		closeComment()
	}
	if len(stack) > 0 {
		out = append(out, strings.Repeat("}", len(stack)))
	}
	return strings.Join(out, "\n")
}

func nextIndent(lines []string, i int) int {
	for _, l := range lines[i+1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		return len(l) - len(strings.TrimLeft(l, " \t"))
	}
	return -1
}

// indentedStatement expands shorthands of the indented syntax.
func indentedStatement(s string) string {
	switch {
	case strings.HasPrefix(s, "="):
		return "@mixin " + strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "+") && len(s) > 1 && isNameStart(s[1]):
		return "@include " + s[1:]
	case strings.HasPrefix(s, "@import "):
		return "@import " + quoteImports(s[len("@import "):])
	}
	return s
}

// quoteImports quotes bare @import arguments.
func quoteImports(args string) string {
	parts := strings.Split(args, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case part == "",
			strings.HasPrefix(part, `"`),
			strings.HasPrefix(part, "'"),
			strings.HasPrefix(strings.ToLower(part), "url("):
		default:
			part = `"` + part + `"`
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}

// splitTrailingComment separates "// comment" tail of a line.
func splitTrailingComment(s string) (string, string) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(s) && s[i+1] == '/' && (i == 0 || isWhitespace(s[i-1])):
			return strings.TrimRight(s[:i], " \t"), " " + s[i:]
		}
	}
	return s, ""
}
