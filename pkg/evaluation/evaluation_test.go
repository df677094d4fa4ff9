package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		name        string
		predictions map[string]string
		groundTruth map[string]string
		expected    float64
	}{
		{"no predictions", map[string]string{}, map[string]string{"1": "A"}, 0.0},
		{"all correct", map[string]string{"1": "A"}, map[string]string{"1": "A"}, 1.0},
		{"half correct", map[string]string{"1": "A", "2": "B"}, map[string]string{"1": "A", "2": "C"}, 0.5},
		{"extra predictions ignored", map[string]string{"1": "A", "9": "Z"}, map[string]string{"1": "A"}, 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.predictions, tc.groundTruth)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-12)
		})
	}
}

func TestEvaluateEmptyGroundTruth(t *testing.T) {
	_, err := Evaluate(map[string]string{"1": "A"}, map[string]string{})
	assert.ErrorIs(t, err, ErrEmptyGroundTruth)

	_, err = NewReport(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyGroundTruth)
}

func TestNewReport(t *testing.T) {
	truth := map[string]string{"1": "Madrid", "2": "Madrid", "3": "Galicia", "4": "Aragón"}
	preds := map[string]string{"1": "Madrid", "2": "Galicia", "3": "Galicia"}

	r, err := NewReport(preds, truth)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 1, r.Missing)
	assert.InDelta(t, 0.5, r.Accuracy, 1e-12)
	assert.Equal(t, []LabelStats{
		{Label: "Madrid", Support: 2, Correct: 1},
		{Label: "Aragón", Support: 1, Correct: 0},
		{Label: "Galicia", Support: 1, Correct: 1},
	}, r.Labels)
	assert.InDelta(t, 0.5, r.Labels[0].Accuracy(), 1e-12)
}

func TestZip(t *testing.T) {
	assert.Equal(t, map[string]string{"1": "A", "2": "B"}, Zip([]string{"1", "2", "3"}, []string{"A", "B"}))
}
