package css

import (
	"errors"
	"slices"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// MediaQuery is single query of a media rule: [modifier] type [and
// conditions] or list of conditions joined by and/or.
type MediaQuery struct {
	Modifier   string
	Type       string
	Conditions []string
	// Conjunction is false when conditions are joined with "or".
	Conjunction bool
}

// MatchesAllTypes is true for queries without type or with type "all".
func (q MediaQuery) MatchesAllTypes() bool {
	return q.Type == "" || strings.EqualFold(q.Type, "all")
}

func (q MediaQuery) equal(o MediaQuery) bool {
	return q.Modifier == o.Modifier && q.Type == o.Type && q.Conjunction == o.Conjunction &&
		slices.Equal(q.Conditions, o.Conditions)
}

// String returns query as written in expanded output.
func (q MediaQuery) String() string {
	return q.format(false)
}

func (q MediaQuery) format(compressed bool) string {
	var b strings.Builder
	if q.Modifier != "" {
		b.WriteString(q.Modifier)
		b.WriteByte(' ')
	}
	if q.Type != "" {
		b.WriteString(q.Type)
		if len(q.Conditions) > 0 {
			b.WriteString(" and ")
		}
	}
	if q.MatchesAllTypes() && len(q.Conditions) == 1 && strings.HasPrefix(q.Conditions[0], "(not ") {
		c := q.Conditions[0]
		b.WriteString("not ")
		b.WriteString(c[len("(not ") : len(c)-1])
		return b.String()
	}
	op := " and "
	if !q.Conjunction {
		op = " or "
	}
	if compressed {
		op = op[1:]
	}
	b.WriteString(strings.Join(q.Conditions, op))
	return b.String()
}

// item is a top level piece of query: identifier or parenthesized group.
type item struct {
	text  string
	ident bool
}

var errMediaQuery = errors.New("expected media query")

// ParseMediaQueries splits evaluated media query text into queries.
func ParseMediaQueries(text string) ([]MediaQuery, error) {
	lex := css.NewLexer(parse.NewInputString(text))

	var (
		queries []MediaQuery
		items   []item
		group   strings.Builder
		depth   int
	)
	finish := func() error {
		if len(items) == 0 {
			return errMediaQuery
		}
		q, err := mediaQueryFromItems(items)
		if err != nil {
			return err
		}
		queries = append(queries, q)
		items = items[:0]
		return nil
	}

	for {
		tt, data := lex.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.CommentToken {
			continue
		}
		if depth > 0 {
			switch tt {
			case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken, css.LeftBraceToken:
				depth++
			case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
				depth--
			}
			if tt == css.WhitespaceToken {
				group.WriteByte(' ')
			} else {
				group.Write(data)
			}
			if depth == 0 {
				items = append(items, item{text: group.String()})
				group.Reset()
			}
			continue
		}
		switch tt {
		case css.WhitespaceToken:
		case css.CommaToken:
			if err := finish(); err != nil {
				return nil, err
			}
		case css.IdentToken:
			items = append(items, item{text: string(data), ident: true})
		case css.LeftParenthesisToken, css.FunctionToken:
			depth = 1
			group.Write(data)
		default:
			return nil, errMediaQuery
		}
	}
	if depth != 0 {
		return nil, errMediaQuery
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return queries, nil
}

func mediaQueryFromItems(items []item) (MediaQuery, error) {
	if !items[0].ident {
		q := MediaQuery{Conditions: []string{items[0].text}, Conjunction: true}
		if len(items) == 1 {
			return q, nil
		}
		op := strings.ToLower(items[1].text)
		if !items[1].ident || op != "and" && op != "or" {
			return q, errMediaQuery
		}
		q.Conjunction = op == "and"
		rest, err := logicSequence(items[1:], op)
		if err != nil {
			return q, err
		}
		q.Conditions = append(q.Conditions, rest...)
		return q, nil
	}

	first := items[0].text
	rest := items[1:]
	if strings.EqualFold(first, "not") && len(rest) > 0 && !rest[0].ident {
		if len(rest) != 1 {
			return MediaQuery{}, errMediaQuery
		}
		return MediaQuery{Conditions: []string{"(not " + rest[0].text + ")"}, Conjunction: true}, nil
	}
	if len(rest) == 0 {
		return MediaQuery{Type: first, Conjunction: true}, nil
	}
	if !rest[0].ident {
		return MediaQuery{}, errMediaQuery
	}

	q := MediaQuery{Conjunction: true}
	if strings.EqualFold(rest[0].text, "and") {
		q.Type = first
	} else {
		q.Modifier, q.Type = first, rest[0].text
		rest = rest[1:]
		if len(rest) == 0 {
			return q, nil
		}
		if !rest[0].ident || !strings.EqualFold(rest[0].text, "and") {
			return q, errMediaQuery
		}
	}
	// rest starts with "and"
	if len(rest) == 3 && rest[1].ident && strings.EqualFold(rest[1].text, "not") && !rest[2].ident {
		q.Conditions = []string{"(not " + rest[2].text + ")"}
		return q, nil
	}
	conds, err := logicSequence(rest, "and")
	if err != nil {
		return q, err
	}
	q.Conditions = conds
	return q, nil
}

// logicSequence reads (op group)+ pairs.
func logicSequence(items []item, op string) ([]string, error) {
	var res []string
	for len(items) > 0 {
		if len(items) < 2 || !items[0].ident || !strings.EqualFold(items[0].text, op) || items[1].ident {
			return nil, errMediaQuery
		}
		res = append(res, items[1].text)
		items = items[2:]
	}
	return res, nil
}

type mergeResult int

const (
	mergeOK mergeResult = iota
	mergeEmpty
	mergeUnrepresentable
)

// merge intersects two queries.
func (q MediaQuery) merge(o MediaQuery) (MediaQuery, mergeResult) {
	if !q.Conjunction || !o.Conjunction {
		return MediaQuery{}, mergeUnrepresentable
	}
	ourMod, ourType := strings.ToLower(q.Modifier), strings.ToLower(q.Type)
	theirMod, theirType := strings.ToLower(o.Modifier), strings.ToLower(o.Type)

	if ourType == "" && theirType == "" {
		return MediaQuery{Conditions: concat(q.Conditions, o.Conditions), Conjunction: true}, mergeOK
	}

	var (
		mod, typ string
		conds    []string
	)
	switch {
	case (ourMod == "not") != (theirMod == "not"):
		if ourType == theirType {
			neg, pos := o.Conditions, q.Conditions
			if ourMod == "not" {
				neg, pos = q.Conditions, o.Conditions
			}
			if subset(neg, pos) {
				return MediaQuery{}, mergeEmpty
			}
			return MediaQuery{}, mergeUnrepresentable
		}
		if q.MatchesAllTypes() || o.MatchesAllTypes() {
			return MediaQuery{}, mergeUnrepresentable
		}
		if ourMod == "not" {
			mod, typ, conds = o.Modifier, o.Type, o.Conditions
		} else {
			mod, typ, conds = q.Modifier, q.Type, q.Conditions
		}
	case ourMod == "not":
		if ourType != theirType {
			return MediaQuery{}, mergeUnrepresentable
		}
		more, fewer := q.Conditions, o.Conditions
		if len(o.Conditions) > len(q.Conditions) {
			more, fewer = o.Conditions, q.Conditions
		}
		if !subset(fewer, more) {
			return MediaQuery{}, mergeUnrepresentable
		}
		mod, typ, conds = q.Modifier, q.Type, more
	case q.MatchesAllTypes():
		mod, typ = o.Modifier, o.Type
		if o.MatchesAllTypes() && ourType == "" {
			typ = ""
		}
		conds = concat(q.Conditions, o.Conditions)
	case o.MatchesAllTypes():
		mod, typ = q.Modifier, q.Type
		conds = concat(q.Conditions, o.Conditions)
	case ourType != theirType:
		return MediaQuery{}, mergeEmpty
	default:
		mod = q.Modifier
		if mod == "" {
			mod = o.Modifier
		}
		typ = q.Type
		conds = concat(q.Conditions, o.Conditions)
	}
	return MediaQuery{Modifier: mod, Type: typ, Conditions: conds, Conjunction: true}, mergeOK
}

// MergeMediaQueries intersects two query lists. Nil result with false means
// the intersection cannot be expressed in CSS, empty result means it never
// matches.
func MergeMediaQueries(outer, inner []MediaQuery) ([]MediaQuery, bool) {
	res := []MediaQuery{}
	for _, q1 := range outer {
		for _, q2 := range inner {
			m, r := q1.merge(q2)
			switch r {
			case mergeEmpty:
				continue
			case mergeUnrepresentable:
				return nil, false
			}
			res = append(res, m)
		}
	}
	return res, true
}

// FormatMediaQueries joins queries the way they appear after "@media".
func FormatMediaQueries(queries []MediaQuery, compressed bool) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = q.format(compressed)
	}
	if compressed {
		return strings.Join(parts, ",")
	}
	return strings.Join(parts, ", ")
}

// EqualMediaQueries compares query lists.
func EqualMediaQueries(a, b []MediaQuery) bool {
	return slices.EqualFunc(a, b, MediaQuery.equal)
}

func concat(a, b []string) []string {
	res := make([]string, 0, len(a)+len(b))
	return append(append(res, a...), b...)
}

func subset(small, big []string) bool {
	for _, s := range small {
		if !slices.Contains(big, s) {
			return false
		}
	}
	return true
}
