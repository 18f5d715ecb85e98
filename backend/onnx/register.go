// MODUL: onnx/register
// ZWECK: Registriert das ONNX Backend in der globalen Backend Registry
// NEBENEFFEKTE: Registriert "onnx" Factory bei Package-Import
// HINWEISE: Import mit _ "github.com/PeterGuy326/react-vision/backend/onnx"

package onnx

import (
	"errors"

	"github.com/PeterGuy326/react-vision/backend"
)

// Name ist der Registry-Name des Backends
const Name = "onnx"

// Dateinamen der exportierten Graphen im Modellverzeichnis
const (
	VisualFile  = "visual.onnx"
	TextualFile = "textual.onnx"
)

var (
	ErrModelLoad     = errors.New("onnx: model load failed")
	ErrSessionCreate = errors.New("onnx: session create failed")
	ErrInference     = errors.New("onnx: inference failed")
)

func init() {
	backend.Register(Name, newBackend)
}
