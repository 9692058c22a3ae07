// Package postprocess - Postprocessing utilities for classification models.
package postprocess

import (
	"fmt"
	"strings"
)

// Result is the classification of a single image.
type Result struct {
	// The image name as it appears in the report.
	Name string
	// The class labels, by output index.
	Labels []string
	// The scores, one per label, in engine output order.
	Scores []float32
}

// NewResult pairs an engine output with the model labels. Scores beyond the last label are
// ignored.
//
// Arguments:
//   - name: The image name.
//   - labels: The class labels.
//   - scores: The raw engine output.
//
// Returns:
//   - Result: The classification.
//   - error: An error if the output holds fewer scores than labels.
func NewResult(name string, labels []string, scores []float32) (Result, error) {
	if len(scores) < len(labels) {
		return Result{}, fmt.Errorf("output has %d scores, need %d for labels %v", len(scores), len(labels), labels)
	}
	out := make([]float32, len(labels))
	copy(out, scores)
	return Result{Name: name, Labels: labels, Scores: out}, nil
}

// Line renders the result as "name,label0,score0,label1,score1" with four decimals.
func (r Result) Line() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	for i, label := range r.Labels {
		fmt.Fprintf(&sb, ",%s,%.4f", label, r.Scores[i])
	}
	return sb.String()
}

// Top returns the label and score of the best class.
func (r Result) Top() (string, float32) {
	i := ArgMax(r.Scores)
	if i < 0 {
		return "", 0
	}
	return r.Labels[i], r.Scores[i]
}

// Softmax returns a copy of the result with scores converted to probabilities.
func (r Result) Softmax() Result {
	return Result{Name: r.Name, Labels: r.Labels, Scores: Softmax(r.Scores)}
}
