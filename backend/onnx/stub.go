//go:build !cgo

// MODUL: onnx/stub
// ZWECK: Stub-Implementierung wenn CGO nicht verfuegbar ist
// HINWEISE: Die Factory gibt immer ErrCGORequired zurueck

package onnx

import (
	"errors"

	"github.com/PeterGuy326/react-vision/backend"
)

// ErrCGORequired wird zurueckgegeben wenn CGO nicht verfuegbar ist
var ErrCGORequired = errors.New("onnx: CGO required but not available")

func newBackend(opts backend.Options) (backend.Backend, error) {
	return nil, ErrCGORequired
}
