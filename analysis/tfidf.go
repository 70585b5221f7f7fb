package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// TFIDF reweights a count matrix by smoothed inverse document frequency,
// ln((1+n)/(1+df))+1, then scales every row to unit length.  All-zero rows
// stay zero.
func TFIDF(m *Matrix) *Matrix {
	out := newMatrix(m.Rows, m.Columns)
	if m.Values == nil {
		return out
	}

	n := float64(len(m.Rows))
	idf := make([]float64, len(m.Columns))
	for j := range m.Columns {
		idf[j] = math.Log((1+n)/(1+float64(m.documentFrequency(j)))) + 1
	}

	for i := range m.Rows {
		row := m.Row(i)
		floats.Mul(row, idf)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		out.Values.SetRow(i, row)
	}
	return out
}
