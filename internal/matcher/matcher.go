// Package matcher resolves free text to a catalog product. It tries, in
// order, an exact name, a name containing the query and finally the most
// similar name by Ratcliff/Obershelp ratio.
package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"kasirinaja/shopbot/internal/domain"
)

// DefaultCutoff is the lowest similarity a fuzzy match may have.
const DefaultCutoff = 0.6

type Matcher struct {
	cutoff float64
}

// New returns a Matcher. A cutoff outside (0, 1] falls back to DefaultCutoff.
func New(cutoff float64) *Matcher {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	return &Matcher{cutoff: cutoff}
}

func (m *Matcher) Cutoff() float64 {
	return m.cutoff
}

// Match returns the product query refers to, or nil. A nil result means
// "not found" and is not an error.
func (m *Matcher) Match(products []*domain.Product, query string) *domain.Product {
	q := Fold(query)
	if q == "" || len(products) == 0 {
		return nil
	}

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = Fold(p.Name)
	}

	for i, name := range names {
		if name == q {
			return products[i]
		}
	}

	for i, name := range names {
		if strings.Contains(name, q) {
			return products[i]
		}
	}

	best, bestScore := -1, 0.0
	for i, name := range names {
		// strictly greater keeps the earliest product on ties
		if score := Ratio(name, q); score >= m.cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil
	}
	return products[best]
}

// Ratio is the similarity of a and b in [0, 1], compared rune by rune.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Fold trims, normalizes and case-folds s for comparison.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// Contains reports whether sub occurs in s, ignoring case.
func Contains(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
