// Package analysis turns the stored corpus into feature matrices and compares
// languages by the wiki links their articles share.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"jaytaylor.com/polyglot/db"
	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/pkg/unique"
)

var nounExpr = regexp.MustCompile(`\[\[.*?\]\]`)

// BracketedNouns extracts the [[wiki link]] phrases from text, lower-cased
// and trimmed, in order of appearance.  Repeats are kept.
func BracketedNouns(text string) []string {
	matches := nounExpr.FindAllString(text, -1)
	nouns := make([]string, 0, len(matches))
	for _, match := range matches {
		noun := strings.ToLower(strings.TrimSpace(match[2 : len(match)-2]))
		if len(noun) == 0 {
			continue
		}
		nouns = append(nouns, noun)
	}
	return nouns
}

// Matrix holds one row per language and one column per feature.
type Matrix struct {
	Rows    []string
	Columns []string
	Values  *mat.Dense // nil when either dimension is empty.
}

func newMatrix(rows []string, columns []string) *Matrix {
	m := &Matrix{
		Rows:    rows,
		Columns: columns,
	}
	if len(rows) > 0 && len(columns) > 0 {
		m.Values = mat.NewDense(len(rows), len(columns), nil)
	}
	return m
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	if m.Values == nil {
		return make([]float64, len(m.Columns))
	}
	return mat.Row(nil, i, m.Values)
}

// NewMatrix builds a noun count matrix from language -> text.  Rows and
// columns are sorted.
func NewMatrix(docs map[string]string) *Matrix {
	rows := make([]string, 0, len(docs))
	for lang := range docs {
		rows = append(rows, lang)
	}
	sort.Strings(rows)

	counts := make([]map[string]int, len(rows))
	all := []string{}
	for i, lang := range rows {
		counts[i] = map[string]int{}
		for _, noun := range BracketedNouns(docs[lang]) {
			counts[i][noun]++
			all = append(all, noun)
		}
	}

	m := newMatrix(rows, unique.StringsSorted(all))
	if m.Values == nil {
		return m
	}
	for i := range rows {
		for j, noun := range m.Columns {
			m.Values.Set(i, j, float64(counts[i][noun]))
		}
	}
	return m
}

// BuildMatrix reads every stored entry through reader and counts its nouns.
func BuildMatrix(reader db.Reader) (*Matrix, error) {
	docs := map[string]string{}
	if err := reader.EachEntry(func(entry *domain.Entry) {
		docs[entry.Key] = entry.Content
	}); err != nil {
		return nil, errors.Wrap(err, "reading entries")
	}
	m := NewMatrix(docs)
	log.WithField("languages", len(m.Rows)).WithField("nouns", len(m.Columns)).Debug("Built noun matrix")
	return m, nil
}

// NounFrequency is the number of documents a noun appears in.
type NounFrequency struct {
	Noun      string
	Documents int
}

// Frequencies ranks columns by how many rows they occur in, most common first.
func (m *Matrix) Frequencies() []NounFrequency {
	freqs := make([]NounFrequency, len(m.Columns))
	for j, noun := range m.Columns {
		freqs[j] = NounFrequency{
			Noun:      noun,
			Documents: m.documentFrequency(j),
		}
	}
	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Documents > freqs[j].Documents
	})
	return freqs
}

// documentFrequency counts the rows with a non-zero value in column j.
func (m *Matrix) documentFrequency(j int) int {
	if m.Values == nil {
		return 0
	}
	df := 0
	for _, v := range mat.Col(nil, j, m.Values) {
		if v > 0 {
			df++
		}
	}
	return df
}
