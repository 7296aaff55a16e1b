// Package search ranks short catalog texts (category and excursion names)
// against a free-text query. An Index is built per request from the current
// rows, is read-only afterwards and needs no locking.
//
// The score of a document is the Jaccard similarity of the query and
// document token sets. A query token of at least MinPrefixRunes runes also
// matches any document token it prefixes, so "экск" finds "экскурсии".
// Tokens are case-folded and "ё" is treated as "е".
package search

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Doc is one searchable row.
type Doc struct {
	ID   uint
	Text string
}

// Result is a matching Doc with its score in (0, 1].
type Result struct {
	ID      uint
	Snippet string
	Score   float64
}

// Index answers ranked queries.
type Index interface {
	TopK(query string, k int) []Result
}

// DefaultMinPrefixRunes is the shortest query token that may prefix-match.
const DefaultMinPrefixRunes = 3

// RussianStopwords are prepositions and conjunctions that carry no meaning in
// catalog names.
var RussianStopwords = []string{"в", "во", "на", "по", "и", "с", "со", "за", "из", "к", "о", "об", "от", "до", "для"}

type settings struct {
	minPrefix int
	stop      map[string]bool
}

// Option tunes NewIndex.
type Option func(*settings)

// WithMinPrefixRunes changes DefaultMinPrefixRunes; 0 turns prefix matching
// off. Negative values are ignored.
func WithMinPrefixRunes(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.minPrefix = n
		}
	}
}

// WithStopwords drops the given words from documents and queries.
func WithStopwords(words []string) Option {
	return func(s *settings) {
		for _, w := range words {
			for t := range tokens(w, nil) {
				if s.stop == nil {
					s.stop = make(map[string]bool)
				}
				s.stop[t] = true
			}
		}
	}
}

type entry struct {
	Doc
	terms map[string]bool
}

type index struct {
	settings
	entries []entry
}

// NewIndex tokenizes docs. Documents with no tokens are left out.
func NewIndex(docs []Doc, opts ...Option) Index {
	ix := &index{settings: settings{minPrefix: DefaultMinPrefixRunes}}
	for _, o := range opts {
		o(&ix.settings)
	}
	for _, d := range docs {
		terms := tokens(d.Text, ix.stop)
		if len(terms) == 0 {
			continue
		}
		d.Text = strings.Join(strings.Fields(d.Text), " ")
		ix.entries = append(ix.entries, entry{Doc: d, terms: terms})
	}
	return ix
}

// TopK returns the k best matches, best first, ties by ascending id. k <= 0
// means all matches. No match gives nil.
func (ix *index) TopK(query string, k int) []Result {
	q := tokens(query, ix.stop)
	if len(q) == 0 {
		return nil
	}

	var out []Result
	for _, e := range ix.entries {
		hit := ix.matches(q, e.terms)
		if hit == 0 {
			continue
		}
		union := len(q) + len(e.terms) - hit
		out = append(out, Result{ID: e.ID, Snippet: e.Text, Score: float64(hit) / float64(union)})
	}

	slices.SortFunc(out, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return int(a.ID) - int(b.ID)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// matches counts query terms found in terms exactly or, when long enough, as
// a prefix of some term.
func (ix *index) matches(q, terms map[string]bool) int {
	n := 0
	for t := range q {
		if terms[t] {
			n++
			continue
		}
		if ix.minPrefix == 0 || utf8.RuneCountInString(t) < ix.minPrefix {
			continue
		}
		for dt := range terms {
			if strings.HasPrefix(dt, t) {
				n++
				break
			}
		}
	}
	return n
}

var yoReplacer = strings.NewReplacer("ё", "е")

// tokens splits s into folded words of letters and digits, minus stop.
func tokens(s string, stop map[string]bool) map[string]bool {
	s = yoReplacer.Replace(cases.Fold().String(s))
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if !stop[w] {
			out[w] = true
		}
	}
	return out
}
