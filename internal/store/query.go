package store

import (
	"strings"

	"github.com/starford/ansuz/internal/scope"
)

// normalizeQuery rewrites a user query into safe FTS5 MATCH syntax.
// Quoted phrases, parentheses, and the boolean operators AND/OR/NOT are
// preserved; every other token is quoted so characters that are
// significant to FTS5 (-, *, :, .) read as plain text.
func normalizeQuery(query string) string {
	var out []string
	for _, tok := range tokenize(query) {
		switch {
		case tok == "(" || tok == ")":
			out = append(out, tok)
		case tok == "AND" || tok == "OR" || tok == "NOT":
			out = append(out, tok)
		case strings.HasPrefix(tok, `"`):
			out = append(out, tok)
		default:
			out = append(out, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"`)
		}
	}
	return strings.Join(out, " ")
}

// plainTerms extracts bare search terms, dropping operators and unwrapping
// phrases. The LIKE fallback matches all of them conjunctively.
func plainTerms(query string) []string {
	var out []string
	for _, tok := range tokenize(query) {
		if tok == "(" || tok == ")" || tok == "AND" || tok == "OR" || tok == "NOT" {
			continue
		}
		tok = strings.Trim(tok, `"`)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// tokenize splits a query into terms, parens, and quoted phrases. A
// phrase token keeps its surrounding quotes; an unterminated quote runs to
// the end of the input.
func tokenize(query string) []string {
	var toks []string
	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == '"':
			j := strings.IndexByte(query[i+1:], '"')
			if j < 0 {
				toks = append(toks, query[i:]+`"`)
				return toks
			}
			toks = append(toks, query[i:i+j+2])
			i += j + 2
		default:
			j := i
			for j < len(query) && !strings.ContainsRune(" \t\n\r()\"", rune(query[j])) {
				j++
			}
			toks = append(toks, query[i:j])
			i = j
		}
	}
	return toks
}

// scopeClause builds the SQL restriction for a scope set: a node
// qualifies when its full_id or doc_id is a member.
func scopeClause(set scope.Set) (string, []any) {
	ids := set.IDs()
	if len(ids) == 0 {
		return "0", nil // empty scope matches nothing
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	clause := "(n.full_id IN (" + marks + ") OR n.doc_id IN (" + marks + "))"
	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	return clause, args
}
