package openclip

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

func TestLoadWeightsSafetensors(t *testing.T) {
	dir := t.TempDir()
	writeSafetensors(t, filepath.Join(dir, SafetensorsFile), 4.6052, []int64{512, 4})

	w, err := LoadWeights(dir)
	if err != nil {
		t.Fatalf("LoadWeights() error = %v", err)
	}

	if w.Format != FormatSafetensors {
		t.Errorf("Format = %q", w.Format)
	}
	if len(w.Tensors) != 2 {
		t.Errorf("Tensors = %d, erwartet 2 (ohne __metadata__)", len(w.Tensors))
	}
	if w.LogitScale == nil || math.Abs(float64(*w.LogitScale)-4.6052) > 1e-4 {
		t.Errorf("LogitScale = %v, erwartet 4.6052", w.LogitScale)
	}
	if got := w.Params(); got != 1+512*4 {
		t.Errorf("Params() = %d", got)
	}
	if names := w.Names(); names[0] != "logit_scale" || names[1] != "text_projection" {
		t.Errorf("Names() = %v", names)
	}
}

func TestLoadWeightsMissing(t *testing.T) {
	if _, err := LoadWeights(t.TempDir()); !errors.Is(err, ErrWeightsNotFound) {
		t.Errorf("error = %v, erwartet ErrWeightsNotFound", err)
	}
}

func TestLoadWeightsCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SafetensorsFile), []byte("kein safetensors"), 0o644); err != nil {
		t.Fatal(err)
	}

	// safetensors und torch-Format schlagen beide fehl
	if _, err := LoadWeights(dir); err == nil || errors.Is(err, ErrWeightsNotFound) {
		t.Errorf("error = %v, erwartet Ladefehler", err)
	}
}

// writeScalarHeader schreibt eine safetensors-Datei mit beliebigen logit_scale-Offsets
func writeScalarHeader(t *testing.T, path string, offsets [2]int64) {
	t.Helper()

	header, err := json.Marshal(map[string]TensorInfo{
		"logit_scale": {DType: "F32", Shape: []int64{}, Offsets: offsets},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(header))); err != nil {
		t.Fatal(err)
	}
	buf.Write(header)
	buf.Write(make([]byte, 8))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWeightsInvalidOffsets(t *testing.T) {
	cases := map[string][2]int64{
		"vertauscht": {8, 0},
		"negativ":    {-4, 0},
		"leer":       {4, 4},
		"zu gross":   {0, 1 << 62},
		"ueberlauf":  {0, math.MaxInt64},
	}

	for name, offsets := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeScalarHeader(t, filepath.Join(dir, SafetensorsFile), offsets)

			if _, err := LoadWeights(dir); err == nil || errors.Is(err, ErrWeightsNotFound) {
				t.Errorf("error = %v, erwartet Ladefehler", err)
			}
		})
	}
}

func TestDecodeScalar(t *testing.T) {
	f16 := float16.Fromfloat32(2.5)
	bf16 := bfloat16.EncodeFloat32([]float32{-1.5})

	cases := []struct {
		dtype string
		data  []byte
		want  float32
	}{
		{"F32", []byte{0, 0, 0x80, 0x3f}, 1},
		{"F16", []byte{byte(f16.Bits()), byte(f16.Bits() >> 8)}, 2.5},
		{"BF16", bf16, -1.5},
		{"F64", []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}, 1},
	}

	for _, tt := range cases {
		got, err := decodeScalar(tt.dtype, tt.data)
		if err != nil {
			t.Errorf("%s: error = %v", tt.dtype, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: %v, erwartet %v", tt.dtype, got, tt.want)
		}
	}

	if _, err := decodeScalar("I64", make([]byte, 8)); err == nil {
		t.Error("Erwartet Fehler fuer I64")
	}
	if _, err := decodeScalar("F32", []byte{1}); err == nil {
		t.Error("Erwartet Fehler fuer zu kurze Daten")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ModelCfg: ModelCfg{EmbedDim: 4}}

	ok := &Weights{Tensors: map[string]TensorInfo{"text_projection": {Shape: []int64{512, 4}}, "visual.proj": {Shape: []int64{768, 4}}}}
	if err := ok.Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := &Weights{Tensors: map[string]TensorInfo{"visual.proj": {Shape: []int64{768, 8}}}}
	if err := bad.Validate(cfg); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error = %v, erwartet ErrDimensionMismatch", err)
	}
}
