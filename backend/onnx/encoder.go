//go:build cgo

// MODUL: onnx/encoder
// ZWECK: ONNX Runtime Backend fuer OpenCLIP (visual.onnx + textual.onnx)
// INPUT: backend.Options, NCHW Pixel-Tensoren, Token-IDs
// OUTPUT: Rohe Embedding-Zeilen
// NEBENEFFEKTE: Laedt zwei ONNX Runtime Sessions
// ABHAENGIGKEITEN: session.go, backend
// HINWEISE: Graphen ohne dynamische Batch-Dimension werden pro Eintrag ausgefuehrt

package onnx

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/PeterGuy326/react-vision/backend"
)

// Encoder implementiert backend.Backend mit ONNX Runtime.
type Encoder struct {
	visual  *session
	textual *session
	info    backend.Info
	opts    backend.Options
	closed  bool
	mu      sync.RWMutex
}

// New laedt beide Graphen aus opts.ModelDir.
func New(opts backend.Options) (*Encoder, error) {
	visual, err := newSession(filepath.Join(opts.ModelDir, VisualFile), opts)
	if err != nil {
		return nil, fmt.Errorf("visual: %w", err)
	}

	textual, err := newSession(filepath.Join(opts.ModelDir, TextualFile), opts)
	if err != nil {
		visual.destroy()
		return nil, fmt.Errorf("textual: %w", err)
	}

	device := "cpu"
	if opts.UseGPU() {
		device = "cuda"
	}

	return &Encoder{
		visual:  visual,
		textual: textual,
		opts:    opts,
		info: backend.Info{
			Name:         Name,
			Device:       device,
			ImageInput:   visual.input.Name,
			TextInput:    textual.input.Name,
			DynamicBatch: visual.dynamicBatch() && textual.dynamicBatch(),
		},
	}, nil
}

// ============================================================================
// backend.Backend Interface
// ============================================================================

// EncodeImages fuehrt den Bildturm fuer n Bilder aus
func (e *Encoder) EncodeImages(ctx context.Context, pixels []float32, n, size int) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, backend.ErrClosed
	}

	per := 3 * size * size
	if n <= 0 || len(pixels) != n*per {
		return nil, fmt.Errorf("%w: %d values for %d images of %d", backend.ErrInvalidInput, len(pixels), n, size)
	}

	if e.visual.dynamicBatch() {
		return e.runImages(pixels, n, size)
	}

	out := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := e.runImages(pixels[i*per:(i+1)*per], 1, size)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (e *Encoder) runImages(pixels []float32, n, size int) ([][]float32, error) {
	tensor, err := ort.NewTensor(ort.NewShape(int64(n), 3, int64(size), int64(size)), pixels)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer tensor.Destroy()

	return e.visual.run(tensor)
}

// EncodeText fuehrt den Textturm fuer alle Sequenzen aus
func (e *Encoder) EncodeText(ctx context.Context, ids [][]int32) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, backend.ErrClosed
	}
	if len(ids) == 0 || len(ids[0]) == 0 {
		return nil, backend.ErrInvalidInput
	}

	if e.textual.dynamicBatch() {
		return e.runText(ids)
	}

	out := make([][]float32, 0, len(ids))
	for i := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := e.runText(ids[i : i+1])
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (e *Encoder) runText(ids [][]int32) ([][]float32, error) {
	n, length := len(ids), len(ids[0])
	shape := ort.NewShape(int64(n), int64(length))

	var (
		value ort.Value
		err   error
	)
	if e.textual.int64Input() {
		data := make([]int64, 0, n*length)
		for _, row := range ids {
			for _, id := range row {
				data = append(data, int64(id))
			}
		}
		value, err = ort.NewTensor(shape, data)
	} else {
		data := make([]int32, 0, n*length)
		for _, row := range ids {
			data = append(data, row...)
		}
		value, err = ort.NewTensor(shape, data)
	}
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer value.Destroy()

	return e.textual.run(value)
}

// Info gibt Metadaten ueber das Backend zurueck
func (e *Encoder) Info() backend.Info {
	return e.info
}

// Close gibt beide Sessions frei
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.visual.destroy()
	e.textual.destroy()
	e.closed = true
	return nil
}

func newBackend(opts backend.Options) (backend.Backend, error) {
	return New(opts)
}
