// Package match berechnet Aehnlichkeiten zwischen Bild- und Text-Embeddings.
//
// Die Wahrscheinlichkeiten entstehen per Softmax ueber skalierte
// Kosinus-Aehnlichkeiten (Temperatur = logit scale, Standard 100).
package match

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultScale ist der feste Temperaturfaktor von CLIP
const DefaultScale = 100.0

var (
	// ErrDimensionMismatch wird bei unterschiedlichen Embedding-Laengen zurueckgegeben
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNonFinite wenn ein Embedding NaN oder Inf enthaelt
	ErrNonFinite = errors.New("embedding is not finite")
)

// Normalize gibt v mit L2-Norm 1 zurueck. Ein Nullvektor bleibt unveraendert.
func Normalize(v []float32) ([]float32, error) {
	f := toFloat64(v)
	n := floats.Norm(f, 2)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%w: norm %v", ErrNonFinite, n)
	}

	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out, nil
	}

	floats.Scale(1/n, f)
	for i, x := range f {
		out[i] = float32(x)
	}
	return out, nil
}

// NormalizeAll normalisiert jede Zeile
func NormalizeAll(vs [][]float32) ([][]float32, error) {
	out := make([][]float32, len(vs))
	for i, v := range vs {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// Similarity berechnet die Matrix images x texts der Skalarprodukte.
// Bei normalisierten Eingaben ist das die Kosinus-Aehnlichkeit.
func Similarity(images, texts [][]float32) (*mat.Dense, error) {
	if len(images) == 0 || len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDimensionMismatch)
	}

	a, err := dense(images)
	if err != nil {
		return nil, err
	}
	b, err := dense(texts)
	if err != nil {
		return nil, err
	}

	if _, ca := a.Dims(); ca != len(texts[0]) {
		return nil, fmt.Errorf("%w: image %d, text %d", ErrDimensionMismatch, ca, len(texts[0]))
	}

	var s mat.Dense
	s.Mul(a, b.T())
	return &s, nil
}

// Row gibt Zeile i einer Matrix als Slice zurueck
func Row(m *mat.Dense, i int) []float64 {
	return mat.Row(nil, i, m)
}

// Column gibt Spalte j einer Matrix als Slice zurueck
func Column(m *mat.Dense, j int) []float64 {
	return mat.Col(nil, j, m)
}

// Softmax berechnet softmax(scale * x) numerisch stabil. Die Summe ist 1.
func Softmax(x []float64, scale float64) []float64 {
	if len(x) == 0 {
		return nil
	}

	out := make([]float64, len(x))
	floats.ScaleTo(out, scale, x)

	m := floats.Max(out)
	for i, v := range out {
		out[i] = math.Exp(v - m)
	}

	floats.Scale(1/floats.Sum(out), out)
	return out
}

// dense baut eine Matrix aus gleich langen Zeilen
func dense(rows [][]float32) (*mat.Dense, error) {
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrDimensionMismatch)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(r), cols)
		}
		for _, v := range r {
			data = append(data, float64(v))
		}
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func toFloat64(v []float32) []float64 {
	f := make([]float64, len(v))
	for i, x := range v {
		f[i] = float64(x)
	}
	return f
}
