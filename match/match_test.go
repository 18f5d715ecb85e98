package match

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero, err := Normalize([]float32{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, zero)

	in := []float32{1, 1}
	_, err = Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, in, "Eingabe darf nicht veraendert werden")
}

func TestNormalizeNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	for _, v := range [][]float32{{nan, 1}, {1, inf}, {nan, inf}} {
		_, err := Normalize(v)
		assert.ErrorIs(t, err, ErrNonFinite, "%v", v)
	}

	_, err := NormalizeAll([][]float32{{1, 0}, {0, nan}})
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.Contains(t, err.Error(), "row 1")

	out, err := NormalizeAll([][]float32{{2, 0}, {0, 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
}

func TestSimilarity(t *testing.T) {
	images := [][]float32{{1, 0}, {0, 1}}
	texts := [][]float32{{1, 0}, {0.6, 0.8}, {0, -1}}

	s, err := Similarity(images, texts)
	require.NoError(t, err)

	r, c := s.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)

	if diff := cmp.Diff([]float64{1, 0.6, 0}, Row(s, 0), cmpApprox); diff != "" {
		t.Errorf("Zeile 0 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 0}, Column(s, 0), cmpApprox); diff != "" {
		t.Errorf("Spalte 0 (-want +got):\n%s", diff)
	}
}

func TestSimilarityMismatch(t *testing.T) {
	_, err := Similarity([][]float32{{1, 0}}, [][]float32{{1, 0, 0}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Similarity([][]float32{{1, 0}, {1}}, [][]float32{{1, 0}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Similarity(nil, [][]float32{{1}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestSoftmax(t *testing.T) {
	p := Softmax([]float64{0.3, 0.2, 0.1}, DefaultScale)

	var sum float64
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, p[0], p[1])
	assert.Greater(t, p[1], p[2])

	// exp(10) Verhaeltnis bei Abstand 0.1 und Skala 100
	assert.InDelta(t, math.Exp(10), p[0]/p[1], 1e-3)

	// grosse Werte laufen nicht ueber
	big := Softmax([]float64{1000, 1000}, DefaultScale)
	assert.InDelta(t, 0.5, big[0], 1e-9)

	assert.Nil(t, Softmax(nil, 1))
}

func TestRankLabels(t *testing.T) {
	labels := RankLabels(
		[]string{"cat", "dog", "car", "tree"},
		[]float64{0.2, 0.3, 0.1, 0.3},
		[]float64{0.2, 0.35, 0.1, 0.35},
	)

	got := make([]string, len(labels))
	for i, l := range labels {
		got[i] = l.Text
	}
	// Gleichstand dog/tree bleibt in Eingabereihenfolge
	if diff := cmp.Diff([]string{"dog", "tree", "cat", "car"}, got); diff != "" {
		t.Errorf("Reihenfolge (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.3, labels[0].Similarity)
}

func TestTopK(t *testing.T) {
	items := []int{5, 1, 9, 3, 7}
	id := func(i int) float64 { return float64(i) }

	cases := map[string]struct {
		k    int
		want []int
	}{
		"alle":     {0, []int{9, 7, 5, 3, 1}},
		"top zwei": {2, []int{9, 7}},
		"zu gross": {10, []int{9, 7, 5, 3, 1}},
		"nur eins": {1, []int{9}},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, TopK(items, tt.k, id)); diff != "" {
				t.Errorf("TopK(%d) (-want +got):\n%s", tt.k, diff)
			}
		})
	}

	assert.Empty(t, TopK([]int{}, 3, id))
}

// ranked enthaelt einen Slice und ist damit nicht vergleichbar
type ranked struct {
	name  string
	score float64
	vec   []float32
}

func TestTopKNonComparable(t *testing.T) {
	items := []ranked{
		{"a", 0.2, []float32{1}},
		{"b", 0.9, nil},
		{"c", 0.5, []float32{2, 3}},
		{"d", 0.5, nil},
	}
	score := func(r ranked) float64 { return r.score }

	var names []string
	for _, r := range TopK(items, 3, score) {
		names = append(names, r.name)
	}
	// gleiche Scores behalten die Eingabereihenfolge
	assert.Equal(t, []string{"b", "c", "d"}, names)
	assert.Equal(t, []float32{2, 3}, TopK(items, 2, score)[1].vec)
}

var cmpApprox = cmp.Comparer(func(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
})
