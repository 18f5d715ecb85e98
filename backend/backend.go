// Package backend - Forward-Pass-Laufzeit fuer Bild- und Textencoder.
//
// MODUL: backend
// ZWECK: Abstraktion ueber die Inferenz-Laufzeit (z.B. ONNX Runtime)
// INPUT: Vorverarbeitete Pixel-Tensoren, Token-IDs
// OUTPUT: Rohe (nicht normalisierte) Embeddings
// NEBENEFFEKTE: Implementierungen allozieren Laufzeit-Ressourcen
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: L2-Normalisierung passiert im Aufrufer (openclip)
package backend

import (
	"context"
	"errors"
)

// Backend fuehrt die Vorwaertsdurchlaeufe beider Tuerme aus.
// Implementierungen muessen parallel nutzbar sein.
type Backend interface {
	// EncodeImages erwartet n Bilder im NCHW Layout mit Kantenlaenge size
	EncodeImages(ctx context.Context, pixels []float32, n, size int) ([][]float32, error)

	// EncodeText erwartet gepaddete Token-Sequenzen gleicher Laenge
	EncodeText(ctx context.Context, ids [][]int32) ([][]float32, error)

	Info() Info
	Close() error
}

// Info beschreibt ein geladenes Backend
type Info struct {
	Name         string `json:"name"`
	Device       string `json:"device"`
	ImageInput   string `json:"image_input,omitempty"`
	TextInput    string `json:"text_input,omitempty"`
	DynamicBatch bool   `json:"dynamic_batch"`
}

// Options konfiguriert die Erzeugung eines Backends
type Options struct {
	// ModelDir enthaelt visual.onnx und textual.onnx
	ModelDir string

	// Device ist "cpu" oder "cuda"
	Device string

	// Threads fuer Intra-Op Parallelisierung (0 = auto)
	Threads int

	// Library ist der Pfad zur Laufzeit-Bibliothek (leer = Systemsuche)
	Library string

	ImageSize     int
	ContextLength int
	EmbedDim      int
}

// UseGPU meldet ob ein GPU-Device angefordert wurde
func (o Options) UseGPU() bool {
	return o.Device == "cuda" || o.Device == "gpu"
}

// Fehler-Definitionen
var (
	ErrNotRegistered = errors.New("backend not registered")
	ErrClosed        = errors.New("backend closed")
	ErrInvalidInput  = errors.New("invalid backend input")
)
