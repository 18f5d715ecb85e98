// MODUL: weights
// ZWECK: Inventar der Modellgewichte (safetensors, PyTorch-Pickle) und logit_scale
// INPUT: Modellverzeichnis
// OUTPUT: Weights mit Tensor-Metadaten
// NEBENEFFEKTE: Liest Dateien (safetensors nur Header und logit_scale)
// ABHAENGIGKEITEN: x448/float16, d4l3k/go-bfloat16, nlpodyssey/gopickle
// HINWEISE: Faellt bei defektem safetensors auf torch.load-Format zurueck

package openclip

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/d4l3k/go-bfloat16"
	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/x448/float16"
)

const (
	FormatSafetensors = "safetensors"
	FormatPytorch     = "pytorch"

	// maximale Header-Groesse einer safetensors-Datei
	maxHeaderSize = 100 << 20
	maxScalarSize = 8
)

// TensorInfo beschreibt einen Tensor ohne seine Daten
type TensorInfo struct {
	DType   string   `json:"dtype"`
	Shape   []int64  `json:"shape"`
	Offsets [2]int64 `json:"data_offsets"`
}

// Weights ist das Inventar einer Gewichtsdatei
type Weights struct {
	Path       string
	Format     string
	Tensors    map[string]TensorInfo
	LogitScale *float32
}

// Names gibt die Tensor-Namen sortiert zurueck
func (w *Weights) Names() []string {
	names := make([]string, 0, len(w.Tensors))
	for name := range w.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Params gibt die Gesamtzahl der Parameter zurueck
func (w *Weights) Params() int64 {
	var total int64
	for _, t := range w.Tensors {
		n := int64(1)
		for _, d := range t.Shape {
			n *= d
		}
		total += n
	}
	return total
}

// LoadWeights liest open_clip_model.safetensors. Ist die Datei kein gueltiges
// safetensors, wird sie als torch-Checkpoint gelesen. Fehlt sie, wird
// open_clip_pytorch_model.bin versucht.
func LoadWeights(dir string) (*Weights, error) {
	path := filepath.Join(dir, SafetensorsFile)
	if _, err := os.Stat(path); err == nil {
		w, err := readSafetensors(path)
		if err == nil {
			return w, nil
		}

		slog.Warn("safetensors load failed, trying torch format", "path", path, "error", err)
		w, perr := readPickle(path)
		if perr != nil {
			return nil, fmt.Errorf("load %s: %w", path, errors.Join(err, perr))
		}
		return w, nil
	}

	path = filepath.Join(dir, PytorchFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrWeightsNotFound, dir)
	}
	return readPickle(path)
}

// ============================================================================
// safetensors
// ============================================================================

func readSafetensors(path string) (*Weights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var n uint64
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read header size: %w", err)
	}
	if n == 0 || n > maxHeaderSize {
		return nil, fmt.Errorf("invalid header size %d", n)
	}

	header := make([]byte, n)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(header, &raw); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	w := &Weights{Path: path, Format: FormatSafetensors, Tensors: make(map[string]TensorInfo, len(raw))}
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}
		var t TensorInfo
		if err := json.Unmarshal(msg, &t); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		w.Tensors[name] = t
	}

	if t, ok := w.Tensors["logit_scale"]; ok {
		v, err := readScalar(f, 8+int64(n), t)
		if err != nil {
			return nil, fmt.Errorf("logit_scale: %w", err)
		}
		w.LogitScale = &v
	}

	return w, nil
}

// readScalar liest einen skalaren Tensor. Die Offsets stammen aus der Datei
// und werden vor der Allokation geprueft.
func readScalar(r io.ReaderAt, base int64, t TensorInfo) (float32, error) {
	start, end := t.Offsets[0], t.Offsets[1]
	if start < 0 || end <= start || end-start > maxScalarSize {
		return 0, fmt.Errorf("invalid data_offsets [%d, %d]", start, end)
	}

	data := make([]byte, end-start)
	if _, err := r.ReadAt(data, base+start); err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	return decodeScalar(t.DType, data)
}

// decodeScalar liest den ersten Wert eines Tensors
func decodeScalar(dtype string, data []byte) (float32, error) {
	switch dtype {
	case "F32":
		if len(data) >= 4 {
			return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
		}
	case "F16":
		if len(data) >= 2 {
			return float16.Frombits(binary.LittleEndian.Uint16(data)).Float32(), nil
		}
	case "BF16":
		if len(data) >= 2 {
			return bfloat16.DecodeFloat32(data[:2])[0], nil
		}
	case "F64":
		if len(data) >= 8 {
			return float32(math.Float64frombits(binary.LittleEndian.Uint64(data))), nil
		}
	default:
		return 0, fmt.Errorf("unsupported dtype %s", dtype)
	}
	return 0, fmt.Errorf("short %s data: %d bytes", dtype, len(data))
}

// ============================================================================
// torch.load Format (Pickle)
// ============================================================================

type getter interface {
	Get(key interface{}) (interface{}, bool)
}

func readPickle(path string) (*Weights, error) {
	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("torch load: %w", err)
	}

	// Checkpoints speichern die Gewichte oft unter "state_dict"
	if g, ok := obj.(getter); ok {
		if inner, ok := g.Get("state_dict"); ok {
			obj = inner
		}
	}

	dict, ok := obj.(*types.OrderedDict)
	if !ok {
		return nil, fmt.Errorf("unsupported checkpoint layout %T", obj)
	}

	w := &Weights{Path: path, Format: FormatPytorch, Tensors: make(map[string]TensorInfo, dict.Len())}
	for e := dict.List.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*types.OrderedDictEntry)
		name, ok := entry.Key.(string)
		if !ok {
			continue
		}
		t, ok := entry.Value.(*pytorch.Tensor)
		if !ok {
			continue
		}

		shape := make([]int64, len(t.Size))
		for i, d := range t.Size {
			shape[i] = int64(d)
		}
		w.Tensors[name] = TensorInfo{DType: storageDType(t.Source), Shape: shape}

		if name == "logit_scale" {
			if v, ok := firstValue(t); ok {
				w.LogitScale = &v
			}
		}
	}

	return w, nil
}

func storageDType(s pytorch.StorageInterface) string {
	switch s.(type) {
	case *pytorch.FloatStorage:
		return "F32"
	case *pytorch.HalfStorage:
		return "F16"
	case *pytorch.DoubleStorage:
		return "F64"
	default:
		return fmt.Sprintf("%T", s)
	}
}

func firstValue(t *pytorch.Tensor) (float32, bool) {
	off := t.StorageOffset
	switch s := t.Source.(type) {
	case *pytorch.FloatStorage:
		if off < len(s.Data) {
			return s.Data[off], true
		}
	case *pytorch.HalfStorage:
		if off < len(s.Data) {
			return s.Data[off], true
		}
	case *pytorch.DoubleStorage:
		if off < len(s.Data) {
			return float32(s.Data[off]), true
		}
	}
	return 0, false
}

// projectionDim gibt die Ausgabe-Dimension eines Projektions-Tensors zurueck
func (w *Weights) projectionDim(name string) (int, bool) {
	t, ok := w.Tensors[name]
	if !ok || len(t.Shape) == 0 {
		return 0, false
	}
	return int(t.Shape[len(t.Shape)-1]), true
}

// Validate prueft die Projektionen gegen embed_dim
func (w *Weights) Validate(cfg *Config) error {
	for _, name := range []string{"text_projection", "visual.proj"} {
		if d, ok := w.projectionDim(name); ok && d != cfg.ModelCfg.EmbedDim {
			return fmt.Errorf("%w: %s has %d, embed_dim is %d", ErrDimensionMismatch, name, d, cfg.ModelCfg.EmbedDim)
		}
	}
	return nil
}
