package match

import (
	"github.com/emirpasic/gods/v2/trees/binaryheap"
	"github.com/emirpasic/gods/v2/utils"
)

// Label ist ein bewerteter Kandidatentext
type Label struct {
	Text        string  `json:"text"`
	Similarity  float64 `json:"similarity"`
	Probability float64 `json:"probability"`
}

// RankLabels kombiniert Texte mit ihren Werten, absteigend nach Wahrscheinlichkeit.
// Gleichstaende behalten die Eingabereihenfolge.
func RankLabels(texts []string, sims, probs []float64) []Label {
	labels := make([]Label, len(texts))
	for i, t := range texts {
		labels[i] = Label{Text: t, Similarity: sims[i], Probability: probs[i]}
	}
	return TopK(labels, 0, func(l Label) float64 { return l.Probability })
}

// TopK gibt die k Elemente mit dem hoechsten score absteigend zurueck.
// k <= 0 sortiert alle. Gleichstaende behalten die Eingabereihenfolge.
func TopK[T any](items []T, k int, score func(T) float64) []T {
	if k <= 0 || k > len(items) {
		k = len(items)
	}

	scores := make([]float64, len(items))
	for i, it := range items {
		scores[i] = score(it)
	}

	// Min-Heap ueber Indizes: die Wurzel ist das schwaechste behaltene Element
	var cmp utils.Comparator[int] = func(a, b int) int {
		switch {
		case scores[a] < scores[b]:
			return -1
		case scores[a] > scores[b]:
			return 1
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	}
	heap := binaryheap.NewWith(cmp)

	for i := range items {
		heap.Push(i)
		if heap.Size() > k {
			heap.Pop()
		}
	}

	out := make([]T, heap.Size())
	for i := len(out) - 1; i >= 0; i-- {
		idx, _ := heap.Pop()
		out[i] = items[idx]
	}
	return out
}
