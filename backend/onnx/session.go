//go:build cgo

// MODUL: onnx/session
// ZWECK: ONNX Runtime Session Management - Erstellen, Konfigurieren, Ausfuehren
// INPUT: Modell-Pfad (.onnx), backend.Options, Input-Tensoren
// OUTPUT: Session-Handle, Embedding-Zeilen
// NEBENEFFEKTE: Alloziert ONNX Runtime Ressourcen, GPU Memory
// ABHAENGIGKEITEN: onnxruntime_go
// HINWEISE: Thread-sicher, Destroy() MUSS aufgerufen werden

package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/PeterGuy326/react-vision/backend"
)

// ============================================================================
// Runtime Initialisierung (Singleton)
// ============================================================================

var (
	runtimeInitOnce sync.Once
	runtimeInitErr  error
)

// initRuntime initialisiert die ONNX Runtime einmalig.
// library ist nur beim ersten Aufruf wirksam.
func initRuntime(library string) error {
	runtimeInitOnce.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		runtimeInitErr = ort.InitializeEnvironment()
	})
	return runtimeInitErr
}

// ============================================================================
// Session Struktur
// ============================================================================

// session kapselt eine DynamicAdvancedSession mit einem Input und einem Output
type session struct {
	inner  *ort.DynamicAdvancedSession
	input  ort.InputOutputInfo
	output ort.InputOutputInfo
}

// newSession liest Input/Output-Namen aus dem Graphen und erstellt die Session
func newSession(path string, opts backend.Options) (*session, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
	}

	if err := initRuntime(opts.Library); err != nil {
		return nil, fmt.Errorf("runtime init: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: %s has no inputs or outputs", ErrModelLoad, path)
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessOpts.Destroy()

	if opts.Threads > 0 {
		if err := sessOpts.SetIntraOpNumThreads(opts.Threads); err != nil {
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	if opts.UseGPU() {
		if err := appendCUDA(sessOpts); err != nil {
			// Fallback auf CPU
			slog.Warn("cuda provider unavailable, using cpu", "error", err)
		}
	}

	inner, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		sessOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}

	slog.Debug("onnx session created", "path", path,
		"input", inputs[0].Name, "input_shape", inputs[0].Dimensions.String(),
		"output", outputs[0].Name)

	return &session{inner: inner, input: inputs[0], output: outputs[0]}, nil
}

func appendCUDA(sessOpts *ort.SessionOptions) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()

	if err := cudaOpts.Update(map[string]string{"device_id": "0"}); err != nil {
		return err
	}
	return sessOpts.AppendExecutionProviderCUDA(cudaOpts)
}

// dynamicBatch meldet ob die erste Input-Dimension variabel ist
func (s *session) dynamicBatch() bool {
	return len(s.input.Dimensions) > 0 && s.input.Dimensions[0] < 0
}

// int64Input meldet ob der Graph int64-Token erwartet (Standard bei Exports)
func (s *session) int64Input() bool {
	return s.input.DataType != ort.TensorElementDataTypeInt32
}

// run fuehrt die Session aus und liefert die Output-Zeilen.
// Der Output-Tensor wird von der Laufzeit alloziert.
func (s *session) run(input ort.Value) ([][]float32, error) {
	outputs := []ort.Value{nil}
	if err := s.inner.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: output %s is not float32", ErrInference, s.output.Name)
	}

	shape := tensor.GetShape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: unexpected output shape %s", ErrInference, shape.String())
	}

	rows, dim := int(shape[0]), int(shape[1])
	data := tensor.GetData()

	out := make([][]float32, rows)
	for i := range out {
		row := make([]float32, dim)
		copy(row, data[i*dim:(i+1)*dim])
		out[i] = row
	}
	return out, nil
}

// destroy gibt alle Session-Ressourcen frei
func (s *session) destroy() {
	if s.inner != nil {
		s.inner.Destroy()
		s.inner = nil
	}
}
