package completion

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Keywords is the keyword list offered by KeywordSource.
var Keywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"FULL", "CROSS", "GROUP", "ORDER", "BY", "HAVING", "LIMIT", "OFFSET",
	"AS", "ON", "AND", "OR", "NOT", "IN", "BETWEEN", "LIKE", "IS", "NULL",
	"DISTINCT", "CASE", "WHEN", "THEN", "ELSE", "END", "WITH", "UNION",
	"ALL", "EXCEPT", "INTERSECT", "INSERT", "INTO", "VALUES", "UPDATE",
	"SET", "DELETE", "CREATE", "TABLE", "VIEW", "DROP", "ASC", "DESC",
}

// KeywordSource suggests keywords and catalog names for backends without a
// completion service of their own.
type KeywordSource struct {
	Keywords []string
	// Names returns catalog identifiers such as table and column names. It
	// may be nil.
	Names func(ctx context.Context) ([]string, error)
}

// NewKeywordSource returns a source over the default keyword list.
func NewKeywordSource(names func(ctx context.Context) ([]string, error)) *KeywordSource {
	return &KeywordSource{Keywords: Keywords, Names: names}
}

// Fetch implements Fetcher. Keywords are ranked before names; candidates
// equal to the typed token are skipped.
func (s *KeywordSource) Fetch(ctx context.Context, prefix string) ([]Suggestion, error) {
	start := TokenStart(prefix)
	token := strings.ToLower(prefix[start:])

	var names []string
	if s.Names != nil {
		var err error
		names, err = s.Names(ctx)
		if err != nil {
			return nil, err
		}
	}

	var out []Suggestion
	seen := make(map[string]bool)
	add := func(label string) {
		l := strings.ToLower(label)
		if seen[l] || l == token || !strings.HasPrefix(l, token) {
			return
		}
		seen[l] = true
		out = append(out, Suggestion{Label: label, Start: start, Source: prefix})
	}
	for _, kw := range s.Keywords {
		add(kw)
	}
	for _, n := range names {
		add(n)
	}
	return out, nil
}

// TokenStart returns the byte offset where the identifier ending at the end
// of prefix begins.
func TokenStart(prefix string) int {
	i := len(prefix)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:i])
		if !isIdentRune(r) {
			break
		}
		i -= size
	}
	return i
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
