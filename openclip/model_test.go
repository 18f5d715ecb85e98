package openclip

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PeterGuy326/react-vision/backend"
	"github.com/PeterGuy326/react-vision/cache"
	"github.com/PeterGuy326/react-vision/match"
)

// testMerges ergibt "hello</w>" in vier Schritten, Vokabular 518
const testMerges = "#version: 0.2\nh e\nl l\nhe ll\nhell o</w>\n"

const testConfig = `{
  "model_cfg": {
    "embed_dim": 4,
    "vision_cfg": {"image_size": 8, "width": 768, "patch_size": 32},
    "text_cfg": {"context_length": 8, "vocab_size": 518}
  },
  "preprocess_cfg": {"mean": [0.5, 0.5, 0.5], "std": [0.5, 0.5, 0.5]}
}`

// fakeBackend bildet helle Bilder auf e0 und dunkle auf e1 ab,
// Texte auf e[erstes Token % dim]
type fakeBackend struct {
	dim       int
	nan       bool
	textCalls atomic.Int32
	closed    atomic.Bool
}

func (f *fakeBackend) EncodeImages(ctx context.Context, pixels []float32, n, size int) ([][]float32, error) {
	per := 3 * size * size
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, f.dim)
		if pixels[i*per] > 0 {
			v[0] = 2
		} else {
			v[1] = 3
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeBackend) EncodeText(ctx context.Context, ids [][]int32) ([][]float32, error) {
	f.textCalls.Add(1)
	out := make([][]float32, len(ids))
	for i, seq := range ids {
		v := make([]float32, f.dim)
		v[int(seq[1])%f.dim] = 5
		if f.nan {
			v[0] = float32(math.NaN())
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeBackend) Info() backend.Info { return backend.Info{Name: "fake", Device: "cpu"} }

func (f *fakeBackend) Close() error {
	f.closed.Store(true)
	return nil
}

func writeModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bpe_simple_vocab_16e6.txt"), []byte(testMerges), 0o644))
	writeSafetensors(t, filepath.Join(dir, SafetensorsFile), float32(math.Log(50)), []int64{3, 4})
	return dir
}

func writeSafetensors(t *testing.T, path string, logitScale float32, projShape []int64) {
	t.Helper()

	projBytes := int64(2)
	for _, d := range projShape {
		projBytes *= d
	}

	header, err := json.Marshal(map[string]any{
		"__metadata__":    map[string]string{"format": "pt"},
		"logit_scale":     TensorInfo{DType: "F32", Shape: []int64{}, Offsets: [2]int64{0, 4}},
		"text_projection": TensorInfo{DType: "F16", Shape: projShape, Offsets: [2]int64{4, 4 + projBytes}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.Write(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(logitScale)))
	buf.Write(make([]byte, projBytes))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func loadFake(t *testing.T, dir string, opts ...Option) (*Model, *fakeBackend) {
	t.Helper()

	fb := &fakeBackend{dim: 4}
	reg := backend.NewRegistry()
	reg.Register("fake", func(o backend.Options) (backend.Backend, error) {
		assert.Equal(t, dir, o.ModelDir)
		assert.Equal(t, 8, o.ImageSize)
		return fb, nil
	})

	opts = append([]Option{WithRegistry(reg), WithBackend("fake")}, opts...)
	m, err := Load(context.Background(), dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, fb
}

func TestLoad(t *testing.T) {
	dir := writeModelDir(t)
	m, _ := loadFake(t, dir)

	info := m.Info()
	assert.Equal(t, "ViT-B-32", info.Arch)
	assert.Equal(t, 4, info.EmbedDim)
	assert.Equal(t, 8, info.ImageSize)
	assert.Equal(t, FormatSafetensors, info.WeightsFormat)
	assert.Equal(t, 2, info.TensorCount)
	assert.Equal(t, "fake", info.Backend.Name)
	assert.Equal(t, 100.0, m.LogitScale())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "error = %v", err)

	dir := writeModelDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "bpe_simple_vocab_16e6.txt")))
	_, err = Load(context.Background(), dir)
	assert.True(t, errors.Is(err, ErrVocabNotFound), "error = %v", err)

	dir = writeModelDir(t)
	_, err = Load(context.Background(), dir, WithRegistry(backend.NewRegistry()))
	assert.True(t, errors.Is(err, backend.ErrNotRegistered), "error = %v", err)

	dir = writeModelDir(t)
	writeSafetensors(t, filepath.Join(dir, SafetensorsFile), 1, []int64{3, 5})
	_, err = Load(context.Background(), dir, WithRegistry(backend.NewRegistry()))
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "error = %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, writeModelDir(t))
	assert.True(t, errors.Is(err, context.Canceled), "error = %v", err)
}

func TestLoadWithoutWeights(t *testing.T) {
	dir := writeModelDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, SafetensorsFile)))

	m, _ := loadFake(t, dir, WithLogitScale(ScaleLearned))
	assert.Nil(t, m.Weights())
	assert.Equal(t, 100.0, m.LogitScale())
}

func TestPredict(t *testing.T) {
	m, _ := loadFake(t, writeModelDir(t))

	pred, err := m.Predict(context.Background(), pngBytes(t, color.White), []string{"b", "a", "c"})
	require.NoError(t, err)

	var sum float64
	for _, p := range pred.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 1.0, pred.Similarities[1], 1e-6)
	assert.InDelta(t, 0.0, pred.Similarities[0], 1e-6)

	ranked := pred.Ranked()
	assert.Equal(t, "a", ranked[0].Text)

	pred, err = m.Predict(context.Background(), pngBytes(t, color.Black), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", pred.Ranked()[0].Text)
}

func TestPredictErrors(t *testing.T) {
	m, _ := loadFake(t, writeModelDir(t))
	ctx := context.Background()

	_, err := m.Predict(ctx, pngBytes(t, color.White), nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = m.Predict(ctx, []byte("kein bild"), []string{"a"})
	assert.Error(t, err)

	_, err = m.EncodeImages(ctx, [][]byte{pngBytes(t, color.White), nil})
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestEncodeTextNormalized(t *testing.T) {
	m, _ := loadFake(t, writeModelDir(t))

	vecs, err := m.EncodeText(context.Background(), []string{"a", "hello"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	for _, v := range vecs {
		var n float64
		for _, x := range v {
			n += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(n), 1e-6)
	}
}

func TestEncodeTextCache(t *testing.T) {
	mem := cache.NewMemory(8)
	m, fb := loadFake(t, writeModelDir(t), WithCache(mem))
	ctx := context.Background()

	first, err := m.EncodeText(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	second, err := m.EncodeText(ctx, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fb.textCalls.Load(), "zweiter Aufruf sollte aus dem Cache kommen")
	assert.Equal(t, first[0], second[1])

	_, err = m.EncodeText(ctx, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), fb.textCalls.Load())
	assert.Equal(t, 3, mem.Len())

	// Aenderungen am Ergebnis duerfen den Cache nicht veraendern
	want := slices.Clone(second[0])
	second[0][0] = 42
	third, err := m.EncodeText(ctx, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, want, third[0])
	assert.Equal(t, int32(2), fb.textCalls.Load())
}

// closingCache meldet Close-Aufrufe
type closingCache struct {
	*cache.Memory
	closed bool
}

func (c *closingCache) Close() error {
	c.closed = true
	return nil
}

func TestCloseReleasesCache(t *testing.T) {
	c := &closingCache{Memory: cache.NewMemory(4)}
	m, _ := loadFake(t, writeModelDir(t), WithCache(c))

	require.NoError(t, m.Close())
	assert.True(t, c.closed)
}

func TestEncodeTextNonFinite(t *testing.T) {
	mem := cache.NewMemory(8)
	m, fb := loadFake(t, writeModelDir(t), WithCache(mem))
	fb.nan = true

	_, err := m.EncodeText(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, match.ErrNonFinite)
	assert.Equal(t, 0, mem.Len(), "ungueltige Embeddings duerfen nicht gecacht werden")
}

func TestDimensionMismatch(t *testing.T) {
	dir := writeModelDir(t)
	reg := backend.NewRegistry()
	reg.Register("fake", func(backend.Options) (backend.Backend, error) { return &fakeBackend{dim: 3}, nil })

	m, err := Load(context.Background(), dir, WithRegistry(reg), WithBackend("fake"))
	require.NoError(t, err)
	defer m.Close()

	_, err = m.EncodeText(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "error = %v", err)
}

func TestClose(t *testing.T) {
	m, fb := loadFake(t, writeModelDir(t))

	require.NoError(t, m.Close())
	assert.True(t, fb.closed.Load())
	require.NoError(t, m.Close())

	_, err := m.EncodeText(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, ErrModelClosed))
	_, err = m.EncodeImage(context.Background(), pngBytes(t, color.White))
	assert.True(t, errors.Is(err, ErrModelClosed))
}

func TestResolveScale(t *testing.T) {
	ln := func(v float32) *Weights { return &Weights{LogitScale: &v} }

	cases := []struct {
		mode    string
		weights *Weights
		want    float64
		wantErr bool
	}{
		{"", nil, 100, false},
		{ScaleFixed, ln(1), 100, false},
		{ScaleLearned, ln(float32(math.Log(50))), 50, false},
		{ScaleLearned, ln(10), 100, false},
		{ScaleLearned, &Weights{}, 100, false},
		{"42.5", nil, 42.5, false},
		{"-1", nil, 0, true},
		{"abc", nil, 0, true},
	}

	for _, tt := range cases {
		got, err := resolveScale(tt.mode, tt.weights)
		if tt.wantErr {
			assert.Error(t, err, tt.mode)
			continue
		}
		require.NoError(t, err, tt.mode)
		assert.InDelta(t, tt.want, got, 1e-3, tt.mode)
	}
}
