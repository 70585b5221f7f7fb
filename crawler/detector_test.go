package crawler

import (
	"testing"
	"time"

	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/similarity"
)

func TestDetectorDecide(t *testing.T) {
	date := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)
	stored := func(content string) *domain.Entry {
		return domain.NewEntry("go", content, date)
	}

	testCases := []struct {
		detector  Detector
		stored    *domain.Entry
		candidate string
		action    Action
		ratio     float64
	}{
		{
			detector:  NewDetector(),
			stored:    nil,
			candidate: "anything",
			action:    ActionInsert,
			ratio:     0,
		},
		{
			detector:  NewDetector(),
			stored:    stored("identical text"),
			candidate: "identical text",
			action:    ActionSkip,
			ratio:     1,
		},
		{
			detector:  NewDetector(),
			stored:    stored("The Ball Player"),
			candidate: "The Ball Player.",
			action:    ActionUpdate,
			ratio:     30.0 / 31.0,
		},
		{
			detector:  NewDetector(),
			stored:    stored("Some article"),
			candidate: "",
			action:    ActionUpdate,
			ratio:     0,
		},
		{
			detector:  Detector{Cutoff: 0.95},
			stored:    stored("The Ball Player"),
			candidate: "The Ball Player.",
			action:    ActionSkip,
			ratio:     30.0 / 31.0,
		},
		{
			// Reordering fools quick ratio but not the full one.
			detector:  Detector{Cutoff: 0.99, Algorithm: similarity.Full},
			stored:    stored("listen"),
			candidate: "silent",
			action:    ActionUpdate,
			ratio:     0.5,
		},
		{
			detector:  Detector{Cutoff: 0.99, Algorithm: similarity.Quick},
			stored:    stored("listen"),
			candidate: "silent",
			action:    ActionSkip,
			ratio:     1,
		},
	}

	for i, testCase := range testCases {
		decision := testCase.detector.Decide(testCase.stored, testCase.candidate)
		if expected, actual := testCase.action, decision.Action; actual != expected {
			t.Errorf("[i=%v] Expected action=%v but actual=%v", i, expected, actual)
		}
		if expected, actual := testCase.ratio, decision.Ratio; !almostEqual(expected, actual) {
			t.Errorf("[i=%v] Expected ratio=%v but actual=%v", i, expected, actual)
		}
	}
}

func almostEqual(a float64, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
