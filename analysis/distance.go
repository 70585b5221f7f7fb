package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

type Metric string

const (
	Cosine    Metric = "cosine"
	Cityblock Metric = "cityblock"
	Euclidean Metric = "euclidean"

	DefaultMetric = Cosine
)

func ParseMetric(s string) (Metric, error) {
	switch metric := Metric(strings.ToLower(strings.TrimSpace(s))); metric {
	case "":
		return DefaultMetric, nil
	case Cosine, Cityblock, Euclidean:
		return metric, nil
	default:
		return "", fmt.Errorf("unrecognized distance metric %q", s)
	}
}

// Distances returns the pairwise cosine distances between rows of m.
func Distances(m *Matrix) *Matrix {
	return DistancesMetric(m, Cosine)
}

// DistancesMetric returns the square matrix of pairwise row distances.  The
// diagonal is always zero.  Under Cosine a zero row is at distance 1 from
// every other row.
func DistancesMetric(m *Matrix, metric Metric) *Matrix {
	dist := newMatrix(m.Rows, m.Rows)
	rows := make([][]float64, len(m.Rows))
	for i := range m.Rows {
		rows[i] = m.Row(i)
	}
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			d := distance(metric, rows[i], rows[j])
			dist.Values.Set(i, j, d)
			dist.Values.Set(j, i, d)
		}
	}
	return dist
}

func distance(metric Metric, u []float64, v []float64) float64 {
	switch metric {
	case Cityblock:
		return floats.Distance(u, v, 1)

	case Euclidean:
		return floats.Distance(u, v, 2)

	default:
		nu, nv := floats.Norm(u, 2), floats.Norm(v, 2)
		if nu == 0 || nv == 0 {
			return 1
		}
		return 1 - floats.Dot(u, v)/(nu*nv)
	}
}

type Neighbor struct {
	Language string
	Distance float64
}

type Neighbors struct {
	Language string
	Nearest  []Neighbor
}

// Nearest lists, for every row of a distance matrix, the k closest other
// rows.  Ties are broken by name.
func Nearest(dist *Matrix, k int) []Neighbors {
	out := make([]Neighbors, len(dist.Rows))
	for i, lang := range dist.Rows {
		candidates := make([]Neighbor, 0, len(dist.Rows)-1)
		for j, other := range dist.Columns {
			if i == j {
				continue
			}
			candidates = append(candidates, Neighbor{Language: other, Distance: dist.Values.At(i, j)})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].Distance == candidates[b].Distance {
				return candidates[a].Language < candidates[b].Language
			}
			return candidates[a].Distance < candidates[b].Distance
		})
		if k >= 0 && k < len(candidates) {
			candidates = candidates[:k]
		}
		out[i] = Neighbors{
			Language: lang,
			Nearest:  candidates,
		}
	}
	return out
}
