package archive

import (
	"regexp"
	"strings"
	"unicode"
)

// Boolean operators accepted by the search query parser.
const (
	GroupOR  = "OR"
	GroupAND = "AND"
)

// Term is one search criterion. A scalar Value renders as a bare
// field:value pair; a Values list renders as a parenthesized group. An
// empty field denotes an unqualified free-text term. A leading "-" on the
// field negates it (e.g. "-mediatype"). At most one of Value and Values
// should be set.
type Term struct {
	Field  string
	Value  string
	Values []string
}

// specialChars are the query parser's metacharacters, plus the boolean
// operators && and ||.
var specialChars = regexp.MustCompile(`([+!(){}\[\]^"~*?:\\]|&&|\|\|)`)

// QuoteTerm backslash-escapes special characters and wraps the term in
// double quotes when it contains whitespace. Single tokens stay bare:
// date:"2014-01-01" makes the remote parser error.
func QuoteTerm(term string) string {
	term = specialChars.ReplaceAllString(term, `\$1`)
	if strings.ContainsFunc(term, unicode.IsSpace) {
		term = `"` + term + `"`
	}
	return term
}

// QueryString builds a boolean search expression. Values within one
// grouped term are joined with the given operator (OR when empty); terms
// are joined with AND. Terms with no non-empty values are skipped.
func QueryString(terms []Term, group string) string {
	if group == "" {
		group = GroupOR
	}
	var parts []string
	for _, t := range terms {
		expr := t.expr(group)
		if expr == "" {
			continue
		}
		if t.Field != "" {
			expr = t.Field + ":" + expr
		}
		parts = append(parts, expr)
	}
	return strings.Join(parts, " AND ")
}

// expr renders the term's value side, or "" when there is nothing to
// render.
func (t Term) expr(group string) string {
	if t.Values == nil {
		if t.Value == "" {
			return ""
		}
		return QuoteTerm(t.Value)
	}
	values := make([]string, 0, len(t.Values))
	for _, v := range t.Values {
		if v == "" {
			continue
		}
		values = append(values, QuoteTerm(v))
	}
	if len(values) == 0 {
		return ""
	}
	return "(" + strings.Join(values, " "+group+" ") + ")"
}
