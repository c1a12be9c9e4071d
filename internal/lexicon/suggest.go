package lexicon

import (
	"sort"
	"sync"

	"github.com/hyperjump/kalima/internal/arabic"
)

// Suggestion is a lemma text close to a term that is not in the lexicon.
type Suggestion struct {
	Term      string `json:"term"`
	Distance  int    `json:"distance"`
	Frequency int    `json:"frequency"`
}

// TermSource lists indexed terms with their document frequency.
type TermSource interface {
	Terms() (map[string]int, error)
}

// Suggester proposes lexicon terms for misspelled or unknown lemma text.
type Suggester struct {
	source         TermSource
	maxDistance    int
	maxSuggestions int

	mu    sync.RWMutex
	terms map[string]int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the largest edit distance a suggestion may have.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions caps the number of suggestions returned.
func WithMaxSuggestions(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSuggester creates a Suggester reading terms from source.
func NewSuggester(source TermSource, opts ...SuggesterOption) *Suggester {
	s := &Suggester{source: source, maxDistance: 2, maxSuggestions: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh reloads the term list. Call it after the index changes.
func (s *Suggester) Refresh() error {
	terms, err := s.source.Terms()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return nil
}

func (s *Suggester) snapshot() (map[string]int, error) {
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()
	if terms != nil {
		return terms, nil
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms, nil
}

// Suggest returns terms within the maximum edit distance of term, closest first and
// then most frequent. A term that is itself indexed yields no suggestions.
func (s *Suggester) Suggest(term string) ([]Suggestion, error) {
	term = arabic.StripDiacritics(term)
	terms, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if _, ok := terms[term]; ok || term == "" {
		return []Suggestion{}, nil
	}

	target := []rune(term)
	out := []Suggestion{}
	for candidate, freq := range terms {
		runes := []rune(candidate)
		if diff := len(runes) - len(target); diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		if d := editDistance(target, runes); d <= s.maxDistance {
			out = append(out, Suggestion{Term: candidate, Distance: d, Frequency: freq})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out, nil
}

// editDistance is the Damerau-Levenshtein distance: insertions, deletions,
// substitutions and adjacent transpositions each cost one.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	d := make([][]int, len(a)+1)
	for i := range d {
		d[i] = make([]int, len(b)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[len(a)][len(b)]
}
