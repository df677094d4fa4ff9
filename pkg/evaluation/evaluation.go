// Package evaluation scores predicted labels against the ground-truth mapping.
package evaluation

import (
	"errors"
	"sort"
)

// ErrEmptyGroundTruth is returned when there is nothing to score against
var ErrEmptyGroundTruth = errors.New("ground truth mapping is empty")

// Evaluate returns the fraction of ground-truth ids whose prediction matches.
// Predictions for ids outside the ground truth are ignored and missing
// predictions count as misses.
func Evaluate(predictions, groundTruth map[string]string) (float64, error) {
	if len(groundTruth) == 0 {
		return 0, ErrEmptyGroundTruth
	}
	correct := 0
	for id, want := range groundTruth {
		if got, ok := predictions[id]; ok && got == want {
			correct++
		}
	}
	return float64(correct) / float64(len(groundTruth)), nil
}

// LabelStats counts ground-truth support and correct predictions for a label
type LabelStats struct {
	Label   string
	Support int
	Correct int
}

// Accuracy is Correct / Support
func (s LabelStats) Accuracy() float64 {
	if s.Support == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Support)
}

// Report breaks accuracy down by ground-truth label
type Report struct {
	Total    int
	Correct  int
	Missing  int
	Accuracy float64
	Labels   []LabelStats
}

// NewReport builds a per-label report. Labels are ordered by support, then
// name.
func NewReport(predictions, groundTruth map[string]string) (*Report, error) {
	accuracy, err := Evaluate(predictions, groundTruth)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]*LabelStats)
	r := &Report{Total: len(groundTruth), Accuracy: accuracy}
	for id, want := range groundTruth {
		s, ok := byLabel[want]
		if !ok {
			s = &LabelStats{Label: want}
			byLabel[want] = s
		}
		s.Support++

		got, ok := predictions[id]
		if !ok {
			r.Missing++
			continue
		}
		if got == want {
			s.Correct++
			r.Correct++
		}
	}

	r.Labels = make([]LabelStats, 0, len(byLabel))
	for _, s := range byLabel {
		r.Labels = append(r.Labels, *s)
	}
	sort.Slice(r.Labels, func(i, j int) bool {
		if r.Labels[i].Support != r.Labels[j].Support {
			return r.Labels[i].Support > r.Labels[j].Support
		}
		return r.Labels[i].Label < r.Labels[j].Label
	})
	return r, nil
}

// Zip pairs ids with labels produced in the same order
func Zip(ids, labels []string) map[string]string {
	out := make(map[string]string, len(ids))
	for i, id := range ids {
		if i < len(labels) {
			out[id] = labels[i]
		}
	}
	return out
}
