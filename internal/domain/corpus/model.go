// Package corpus fits a TF-IDF vector space over a set of texts and projects
// queries into it.
//
// A Model is immutable once fit. Rows are unit length, so cosine similarity
// between a projected query and a row is their dot product.
package corpus

import (
	"math"
	"sort"
)

// DefaultMaxFeatures caps the vocabulary size when Options.MaxFeatures is unset.
const DefaultMaxFeatures = 500

// Options controls fitting.
type Options struct {
	// MaxFeatures caps the vocabulary. Zero means DefaultMaxFeatures, negative means no cap.
	MaxFeatures int
}

// Entry is one non-zero component of a sparse vector.
type Entry struct {
	Index  int
	Weight float64
}

// Vector is a sparse vector with entries sorted by Index.
type Vector []Entry

// Dense expands v into a slice of the given dimension.
func (v Vector) Dense(dim int) []float64 {
	out := make([]float64, dim)
	for _, e := range v {
		out[e.Index] = e.Weight
	}
	return out
}

type posting struct {
	doc    int
	weight float64
}

// Model is a fitted vocabulary plus one weight row per input text, in input order.
type Model struct {
	vocab    map[string]int
	terms    []string
	idf      []float64
	rows     []Vector
	postings [][]posting
}

// Fit builds a model over texts. An empty corpus yields an empty model.
func Fit(texts []string, opts Options) *Model {
	maxFeatures := opts.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = DefaultMaxFeatures
	}

	docCounts := make([]map[string]int, len(texts))
	totals := make(map[string]int)
	df := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range Terms(text) {
			counts[term]++
		}
		for term, c := range counts {
			totals[term] += c
			df[term]++
		}
		docCounts[i] = counts
	}

	terms := selectTerms(totals, maxFeatures)

	m := &Model{
		vocab:    make(map[string]int, len(terms)),
		terms:    terms,
		idf:      make([]float64, len(terms)),
		rows:     make([]Vector, len(texts)),
		postings: make([][]posting, len(terms)),
	}
	n := float64(len(texts))
	for i, term := range terms {
		m.vocab[term] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	for d, counts := range docCounts {
		row := m.weigh(counts)
		m.rows[d] = row
		for _, e := range row {
			m.postings[e.Index] = append(m.postings[e.Index], posting{doc: d, weight: e.Weight})
		}
	}
	return m
}

// selectTerms keeps the maxFeatures most frequent terms (ties by term) and
// returns them in lexicographic order.
func selectTerms(totals map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(totals))
	for term := range totals {
		terms = append(terms, term)
	}
	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			ti, tj := totals[terms[i]], totals[terms[j]]
			if ti != tj {
				return ti > tj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)
	return terms
}

// weigh turns raw in-vocabulary term counts into a unit-length tf-idf vector.
func (m *Model) weigh(counts map[string]int) Vector {
	v := make(Vector, 0, len(counts))
	for term, c := range counts {
		idx, ok := m.vocab[term]
		if !ok {
			continue
		}
		v = append(v, Entry{Index: idx, Weight: float64(c) * m.idf[idx]})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Index < v[j].Index })

	var sum float64
	for _, e := range v {
		sum += e.Weight * e.Weight
	}
	if sum == 0 {
		return nil
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i].Weight /= norm
	}
	return v
}

// Project maps text into the fitted space. Out-of-vocabulary terms are dropped;
// the result is nil when nothing remains.
func (m *Model) Project(text string) Vector {
	if len(m.terms) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, term := range Terms(text) {
		if _, ok := m.vocab[term]; ok {
			counts[term]++
		}
	}
	return m.weigh(counts)
}

// Scores returns the cosine similarity of q against every row, in row order.
func (m *Model) Scores(q Vector) []float64 {
	scores := make([]float64, len(m.rows))
	for _, e := range q {
		for _, p := range m.postings[e.Index] {
			scores[p.doc] += e.Weight * p.weight
		}
	}
	return scores
}

// Len returns the number of rows.
func (m *Model) Len() int { return len(m.rows) }

// VocabularySize returns the number of terms.
func (m *Model) VocabularySize() int { return len(m.terms) }

// Vocabulary returns the terms in index order.
func (m *Model) Vocabulary() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Index returns the vocabulary index of term.
func (m *Model) Index(term string) (int, bool) {
	i, ok := m.vocab[term]
	return i, ok
}

// Row returns a copy of row i.
func (m *Model) Row(i int) Vector {
	out := make(Vector, len(m.rows[i]))
	copy(out, m.rows[i])
	return out
}
