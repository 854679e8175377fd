//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/scope"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search scans node text realized from the
	// document content via substr.
	return nil
}

func ftsIndex(_ *sql.Tx, _ int64, _ string) error {
	// Node spans already address the text; nothing extra to store.
	return nil
}

func ftsDeleteDoc(_ *sql.Tx, _ string) error { return nil }

// Search is the degraded non-FTS5 build: every term must occur in the
// node text (case-insensitive), scored by occurrence count. Snippets
// still carry << >> markers so callers behave identically across builds.
func (s *Store) Search(query string, limit int, set scope.Set) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := plainTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	q := `
		SELECT n.node_pk, n.doc_id, n.short_id,
		       CAST(substr(d.content, n.start_offset + 1, n.end_offset - n.start_offset) AS TEXT)
		FROM nodes n
		JOIN documents d ON d.doc_id = n.doc_id
		WHERE 1 = 1`
	var args []any
	if set != nil {
		clause, scopeArgs := scopeClause(set)
		q += " AND " + clause
		args = append(args, scopeArgs...)
	}
	q += " ORDER BY n.node_pk"

	rows, err := s.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var body string
		if err := rows.Scan(&r.NodePK, &r.DocID, &r.ShortID, &body); err != nil {
			return nil, err
		}
		score := matchScore(body, terms)
		if score == 0 {
			continue
		}
		r.Score = float64(score)
		r.Snippet = makeSnippet(body, terms)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// matchScore returns the total occurrence count when every term occurs,
// zero otherwise.
func matchScore(body string, terms []string) int {
	lower := strings.ToLower(body)
	total := 0
	for _, t := range terms {
		n := strings.Count(lower, strings.ToLower(t))
		if n == 0 {
			return 0
		}
		total += n
	}
	return total
}

const snippetContext = 60

// makeSnippet cuts a window around the first match and wraps every term
// occurrence inside it with << >> markers.
func makeSnippet(body string, terms []string) string {
	lower := strings.ToLower(body)
	first := len(body)
	for _, t := range terms {
		if i := strings.Index(lower, strings.ToLower(t)); i >= 0 && i < first {
			first = i
		}
	}

	start := first - snippetContext/2
	if start < 0 {
		start = 0
	}
	end := first + snippetContext
	if end > len(body) {
		end = len(body)
	}

	marked := markTerms(body[start:end], terms)
	if start > 0 {
		marked = "…" + marked
	}
	if end < len(body) {
		marked += "…"
	}
	return marked
}

// markTerms wraps term occurrences left to right, longest term first at
// each position so overlapping terms never nest markers.
func markTerms(text string, terms []string) string {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	lower := strings.ToLower(text)
	var sb strings.Builder
	i := 0
	for i < len(text) {
		matched := false
		for _, t := range sorted {
			lt := strings.ToLower(t)
			if strings.HasPrefix(lower[i:], lt) {
				sb.WriteString("<<")
				sb.WriteString(text[i : i+len(lt)])
				sb.WriteString(">>")
				i += len(lt)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(text[i])
			i++
		}
	}
	return sb.String()
}
