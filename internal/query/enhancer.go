package query

import (
	"strings"
	"unicode/utf8"
)

// MinQueryLength is the shortest normalized query that produces terms.
const MinQueryLength = 2

// Enhanced is the result of expanding a raw query.
type Enhanced struct {
	// Terms are the deduplicated search terms in first-seen order.
	Terms []string
	// Original is the normalized query.
	Original string
}

// Enhancer expands raw queries with tokens, typo corrections and synonyms.
// It is safe for concurrent use.
type Enhancer struct {
	dict *Dictionary
}

// NewEnhancer creates an Enhancer. A nil dictionary uses DefaultDictionary.
func NewEnhancer(dict *Dictionary) *Enhancer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Enhancer{dict: dict}
}

// Enhance normalizes raw and expands it into search terms. Queries shorter
// than MinQueryLength yield no terms.
func (e *Enhancer) Enhance(raw string) Enhanced {
	q := normalize(raw)
	out := Enhanced{Original: q}
	if utf8.RuneCountInString(q) < MinQueryLength {
		return out
	}

	terms := newTermSet()
	words := strings.Fields(q)
	terms.add(words...)
	if len(words) > 1 {
		terms.add(q)
	}

	for _, entry := range e.dict.Typos {
		for _, typo := range entry.Variants {
			if q == typo {
				terms.add(entry.Term)
				break
			}
		}
		if strings.Contains(q, entry.Term) {
			terms.add(entry.Variants...)
		}
	}

	for _, entry := range e.dict.Synonyms {
		if strings.Contains(q, entry.Term) {
			terms.add(entry.Variants...)
		}
	}

	out.Terms = terms.list
	return out
}

type termSet struct {
	seen map[string]struct{}
	list []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]struct{})}
}

func (s *termSet) add(terms ...string) {
	for _, t := range terms {
		if _, ok := s.seen[t]; ok {
			continue
		}
		s.seen[t] = struct{}{}
		s.list = append(s.list, t)
	}
}
