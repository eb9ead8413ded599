// Package locator resolves free-form district text to a gazetteer entry.
package locator

import (
	"math"
	"sort"

	"pothikbondhu/internal/domain/models"
	"pothikbondhu/internal/gazetteer"
)

const (
	// Threshold is the largest accepted edit distance per query character.
	Threshold = 0.45
	// MinQueryRunes rejects one-letter queries that would match almost anything.
	MinQueryRunes = 2
)

type entry struct {
	loc    models.Location
	order  int
	fields [][]rune
}

// Locator is immutable after New and safe for concurrent readers.
type Locator struct {
	entries []entry
}

// Match is one accepted candidate with its score.
type Match struct {
	Location models.Location `json:"location"`
	Score    float64         `json:"score"`
	whole    int
	order    int
}

func New(g *gazetteer.Gazetteer) *Locator {
	all := g.All()
	l := &Locator{entries: make([]entry, 0, len(all))}
	for i, loc := range all {
		e := entry{loc: loc, order: i}
		for _, f := range append(append([]string{loc.Name}, loc.Aliases...), loc.LocalName) {
			if n := normalize(f); n != "" {
				e.fields = append(e.fields, []rune(n))
			}
		}
		l.entries = append(l.entries, e)
	}
	return l
}

// Resolve returns the best-scoring location for input, or false when nothing
// is close enough. Blank and too-short input is never an error.
func (l *Locator) Resolve(input string) (models.Location, bool) {
	matches := l.match(input)
	if len(matches) == 0 {
		return models.Location{}, false
	}
	return matches[0].Location, true
}

// Search returns every accepted candidate, best first. Blank input lists the
// whole gazetteer in catalog order.
func (l *Locator) Search(input string) []Match {
	if normalize(input) == "" {
		out := make([]Match, 0, len(l.entries))
		for _, e := range l.entries {
			out = append(out, Match{Location: e.loc, order: e.order})
		}
		return out
	}
	return l.match(input)
}

func (l *Locator) match(input string) []Match {
	query := []rune(normalize(input))
	if len(query) < MinQueryRunes {
		return nil
	}

	var out []Match
	for _, e := range l.entries {
		score, whole := math.Inf(1), math.MaxInt
		for _, f := range e.fields {
			score = math.Min(score, float64(substringDistance(query, f))/float64(len(query)))
			whole = min(whole, editDistance(query, f))
		}
		if score <= Threshold {
			out = append(out, Match{Location: e.loc, Score: score, whole: whole, order: e.order})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.whole != b.whole {
			return a.whole < b.whole
		}
		return a.order < b.order
	})
	return out
}
