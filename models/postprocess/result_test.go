package postprocess

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultLineWithInfiniteScore(t *testing.T) {
	r, err := NewResult("x.jpg", []string{"cat", "dog"}, []float32{math32.Inf(1), 0})
	require.NoError(t, err)
	assert.Equal(t, "x.jpg,cat,1.0000,dog,0.0000", r.Softmax().Line())
}

func TestResultLine(t *testing.T) {
	r, err := NewResult("cat.0.jpg", []string{"cat", "dog"}, []float32{0.9375, 0.0625})
	require.NoError(t, err)
	assert.Equal(t, "cat.0.jpg,cat,0.9375,dog,0.0625", r.Line())

	label, score := r.Top()
	assert.Equal(t, "cat", label)
	assert.Equal(t, float32(0.9375), score)
}

func TestNewResultExtraScoresIgnored(t *testing.T) {
	r, err := NewResult("dog.0.jpg", []string{"cat", "dog"}, []float32{0.1, 0.9, 42})
	require.NoError(t, err)
	assert.Len(t, r.Scores, 2)
	assert.Equal(t, "dog.0.jpg,cat,0.1000,dog,0.9000", r.Line())
}

func TestNewResultTooFewScores(t *testing.T) {
	_, err := NewResult("x.jpg", []string{"cat", "dog"}, []float32{0.5})
	assert.Error(t, err)
}

func TestNewResultCopiesScores(t *testing.T) {
	scores := []float32{0.25, 0.75}
	r, err := NewResult("a.jpg", []string{"cat", "dog"}, scores)
	require.NoError(t, err)

	scores[0] = 9
	assert.Equal(t, float32(0.25), r.Scores[0], "result must not alias the engine buffer")
}

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name   string
		logits []float32
		want   []float32
	}{
		{name: "equal", logits: []float32{1, 1}, want: []float32{0.5, 0.5}},
		{name: "large logits", logits: []float32{1000, 1000}, want: []float32{0.5, 0.5}},
		{name: "single", logits: []float32{-3}, want: []float32{1}},
		{name: "positive infinity", logits: []float32{math32.Inf(1), 0}, want: []float32{1, 0}},
		{name: "tied infinities", logits: []float32{math32.Inf(1), 3, math32.Inf(1)}, want: []float32{0.5, 0, 0.5}},
		{name: "all negative infinity", logits: []float32{math32.Inf(-1), math32.Inf(-1)}, want: []float32{0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Softmax(tt.logits)
			require.Len(t, got, len(tt.want))
			for i := range got {
				require.False(t, math32.IsNaN(got[i]), "probability %d is NaN", i)
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}

	assert.Nil(t, Softmax(nil))

	p := Softmax([]float32{2, 0, -1})
	var sum float32
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Equal(t, 0, ArgMax(p))
}

func TestArgMaxAndBar(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 1, ArgMax([]float32{0.2, 0.7, 0.1}))

	assert.Equal(t, "*****", Bar(0.5, 10))
	assert.Equal(t, "", Bar(0, 10))
	assert.Equal(t, "**********", Bar(1.5, 10))
	assert.Equal(t, "", Bar(0.5, 0))
}
