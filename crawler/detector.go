package crawler

import (
	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/similarity"
)

// DefaultCutoff is the similarity ratio at or above which a candidate is
// considered unchanged.
var DefaultCutoff = 0.99

type Action int

const (
	ActionInsert Action = iota
	ActionUpdate
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	Ratio  float64
}

// Detector decides whether freshly fetched content differs enough from the
// stored copy to be written.
type Detector struct {
	Cutoff    float64              // Values <= 0 mean DefaultCutoff.
	Algorithm similarity.Algorithm // Empty means similarity.DefaultAlgorithm.
}

func NewDetector() Detector {
	d := Detector{
		Cutoff:    DefaultCutoff,
		Algorithm: similarity.DefaultAlgorithm,
	}
	return d
}

func (d Detector) Decide(stored *domain.Entry, candidate string) Decision {
	if stored == nil {
		return Decision{Action: ActionInsert}
	}
	cutoff := d.Cutoff
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	ratio := similarity.Compare(d.Algorithm, candidate, stored.Content)
	if ratio >= cutoff {
		return Decision{Action: ActionSkip, Ratio: ratio}
	}
	return Decision{Action: ActionUpdate, Ratio: ratio}
}
