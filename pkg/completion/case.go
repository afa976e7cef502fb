package completion

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// casing summarizes which letter cases occur in a string.
type casing struct {
	upper bool
	lower bool
}

func casingOf(s string) casing {
	var c casing
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		}
	}
	return c
}

// allLower is true when s has no uppercase letter (including no letters).
func (c casing) allLower() bool { return !c.upper }

// allUpper is true when s has no lowercase letter (including no letters).
func (c casing) allUpper() bool { return !c.lower }

func (c casing) mixed() bool { return c.upper && c.lower }

// shouting is true when s has letters and all of them are uppercase.
func (c casing) shouting() bool { return c.upper && !c.lower }

// isShoutCase decides whether candidates pass through unchanged. The typed
// token decides; a token without letters defers to the whole line prefix.
func isShoutCase(token, prefix string) bool {
	tc := casingOf(token)
	if tc.upper || tc.lower {
		return tc.shouting()
	}
	return casingOf(prefix).shouting()
}

// MatchCase adapts candidate to the casing of typed.
//
// A mixed-case candidate is returned unchanged: its casing came from a user
// defined identifier. Otherwise the overlapping prefix copies typed's case
// rune by rune, and the rest of the candidate is lowercased when typed is
// lowercase and the candidate uppercase, uppercased when typed is uppercase
// and the candidate lowercase, and left alone otherwise.
//
// Match never reaches the uppercase-remainder branch: an all-uppercase
// token makes isShoutCase true, and shouting tokens bypass MatchCase.
func MatchCase(typed, candidate string) string {
	cc := casingOf(candidate)
	if cc.mixed() {
		return candidate
	}

	t := []rune(typed)
	c := []rune(candidate)
	n := min(len(t), len(c))

	var b strings.Builder
	b.Grow(len(candidate))
	for i := 0; i < n; i++ {
		if unicode.IsUpper(t[i]) {
			b.WriteRune(unicode.ToUpper(c[i]))
		} else {
			b.WriteRune(unicode.ToLower(c[i]))
		}
	}

	rest := string(c[n:])
	tc := casingOf(typed)
	switch {
	case tc.allLower() && cc.allUpper():
		rest = cases.Lower(language.Und).String(rest)
	case tc.shouting() && cc.allLower():
		rest = cases.Upper(language.Und).String(rest)
	}
	b.WriteString(rest)

	return b.String()
}
