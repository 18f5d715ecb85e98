// MODUL: model
// ZWECK: Geladenes OpenCLIP-Modell - Encoder fuer Bilder und Texte, Vorhersage
// INPUT: Modellverzeichnis, Bild-Bytes, Texte
// OUTPUT: L2-normalisierte Embeddings, Wahrscheinlichkeiten
// NEBENEFFEKTE: Haelt Backend-Ressourcen bis Close
// ABHAENGIGKEITEN: backend, vision, tokenizer, match, cache
// HINWEISE: Thread-sicher

package openclip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/PeterGuy326/react-vision/backend"
	"github.com/PeterGuy326/react-vision/cache"
	"github.com/PeterGuy326/react-vision/logutil"
	"github.com/PeterGuy326/react-vision/match"
	"github.com/PeterGuy326/react-vision/openclip/tokenizer"
	"github.com/PeterGuy326/react-vision/vision"
)

// Model ist ein geladenes OpenCLIP-Modell
type Model struct {
	dir     string
	cfg     *Config
	tok     *tokenizer.Tokenizer
	pre     vision.Preprocessor
	backend backend.Backend
	weights *Weights
	scale   float64
	cache   cache.Cache

	mu     sync.RWMutex
	closed bool
}

// Info beschreibt ein geladenes Modell
type Info struct {
	Name          string       `json:"name"`
	Arch          string       `json:"arch"`
	EmbedDim      int          `json:"embed_dim"`
	ImageSize     int          `json:"image_size"`
	ContextLength int          `json:"context_length"`
	Backend       backend.Info `json:"backend"`
	WeightsFormat string       `json:"weights_format,omitempty"`
	TensorCount   int          `json:"tensor_count"`
	LogitScale    float64      `json:"logit_scale"`
}

// Prediction enthaelt die Werte eines Bildes gegen alle Texte in Eingabereihenfolge
type Prediction struct {
	Texts         []string
	Similarities  []float64
	Probabilities []float64
}

// Ranked gibt die Labels absteigend nach Wahrscheinlichkeit zurueck
func (p *Prediction) Ranked() []match.Label {
	return match.RankLabels(p.Texts, p.Similarities, p.Probabilities)
}

// Load laedt Konfiguration, Tokenizer, Gewichte und Backend aus dir
func Load(ctx context.Context, dir string, opts ...Option) (*Model, error) {
	o := defaultLoadOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	tok, err := loadTokenizer(dir, cfg.ModelCfg.TextCfg.VocabSize)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights, err := LoadWeights(dir)
	switch {
	case errors.Is(err, ErrWeightsNotFound):
		slog.Warn("model weights not found", "dir", dir)
		weights = nil
	case err != nil:
		return nil, err
	default:
		if err := weights.Validate(cfg); err != nil {
			return nil, err
		}
		slog.Info("loaded weights", "path", weights.Path, "format", weights.Format, "tensors", len(weights.Tensors))
	}

	scale, err := resolveScale(o.logitScale, weights)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := o.registry.Create(o.backend, backend.Options{
		ModelDir:      dir,
		Device:        o.device,
		Threads:       o.threads,
		Library:       o.library,
		ImageSize:     cfg.ModelCfg.VisionCfg.ImageSize,
		ContextLength: cfg.ModelCfg.TextCfg.ContextLength,
		EmbedDim:      cfg.ModelCfg.EmbedDim,
	})
	if err != nil {
		return nil, err
	}

	m := &Model{
		dir:     dir,
		cfg:     cfg,
		tok:     tok,
		pre:     cfg.Preprocessor(),
		backend: b,
		weights: weights,
		scale:   scale,
		cache:   o.cache,
	}

	slog.Info("model loaded", "arch", cfg.Arch(), "backend", b.Info().Name,
		"device", b.Info().Device, "logit_scale", scale, "duration", time.Since(start))
	return m, nil
}

func loadTokenizer(dir string, vocabSize int) (*tokenizer.Tokenizer, error) {
	for _, name := range []string{VocabFile, "bpe_simple_vocab_16e6.txt"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tok, err := tokenizer.Load(path, vocabSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return tok, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrVocabNotFound, dir)
}

// resolveScale bestimmt den Temperaturfaktor
func resolveScale(mode string, w *Weights) (float64, error) {
	switch mode {
	case "", ScaleFixed:
		return match.DefaultScale, nil
	case ScaleLearned:
		if w == nil || w.LogitScale == nil {
			slog.Warn("logit_scale not in weights, using fixed scale")
			return match.DefaultScale, nil
		}
		// gespeichert wird log(scale), CLIP begrenzt auf 100
		return math.Min(math.Exp(float64(*w.LogitScale)), match.DefaultScale), nil
	default:
		v, err := strconv.ParseFloat(mode, 64)
		if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: logit scale %q", ErrInvalidConfig, mode)
		}
		return v, nil
	}
}

// ============================================================================
// Encoder
// ============================================================================

// EncodeImage liefert das normalisierte Embedding eines Bildes
func (m *Model) EncodeImage(ctx context.Context, data []byte) ([]float32, error) {
	vecs, err := m.EncodeImages(ctx, [][]byte{data})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeImages liefert die normalisierten Embeddings mehrerer Bilder
func (m *Model) EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error) {
	if len(images) == 0 {
		return nil, ErrEmptyInput
	}

	size := m.pre.Size
	pixels := make([]float32, 0, len(images)*m.pre.TensorLen())
	for i, data := range images {
		if len(data) == 0 {
			return nil, fmt.Errorf("image %d: %w", i, ErrEmptyInput)
		}
		px, err := m.pre.Process(data)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		pixels = append(pixels, px...)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrModelClosed
	}

	start := time.Now()
	out, err := m.backend.EncodeImages(ctx, pixels, len(images), size)
	if err != nil {
		return nil, err
	}
	if err := m.checkDims(out, len(images)); err != nil {
		return nil, err
	}
	logutil.TraceContext(ctx, "encoded images", "count", len(images), "duration", time.Since(start))

	return match.NormalizeAll(out)
}

// EncodeText liefert die normalisierten Embeddings der Texte in Eingabereihenfolge
func (m *Model) EncodeText(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrModelClosed
	}

	out := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if m.cache != nil {
			if vec, ok := m.cache.Get(ctx, m.cacheKey(text)); ok && len(vec) == m.cfg.ModelCfg.EmbedDim {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}

	ids := m.tok.Tokenize(batch, m.cfg.ModelCfg.TextCfg.ContextLength)
	raw, err := m.backend.EncodeText(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := m.checkDims(raw, len(batch)); err != nil {
		return nil, err
	}

	for j, i := range missing {
		vec, err := match.Normalize(raw[j])
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
		if m.cache != nil {
			m.cache.Set(ctx, m.cacheKey(texts[i]), vec)
		}
	}

	logutil.TraceContext(ctx, "encoded texts", "count", len(texts), "cached", len(texts)-len(missing))
	return out, nil
}

func (m *Model) cacheKey(text string) string {
	return cache.Key(m.cfg.Arch(), text)
}

func (m *Model) checkDims(out [][]float32, n int) error {
	if len(out) != n {
		return fmt.Errorf("%w: backend returned %d rows for %d inputs", ErrDimensionMismatch, len(out), n)
	}
	want := m.cfg.ModelCfg.EmbedDim
	for _, v := range out {
		if len(v) != want {
			return fmt.Errorf("%w: embedding has %d values, embed_dim is %d", ErrDimensionMismatch, len(v), want)
		}
	}
	return nil
}

// ============================================================================
// Vorhersage
// ============================================================================

// Predict berechnet Aehnlichkeit und Wahrscheinlichkeit eines Bildes zu jedem Text
func (m *Model) Predict(ctx context.Context, image []byte, texts []string) (*Prediction, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	img, err := m.EncodeImage(ctx, image)
	if err != nil {
		return nil, err
	}
	txt, err := m.EncodeText(ctx, texts)
	if err != nil {
		return nil, err
	}

	sims, err := match.Similarity([][]float32{img}, txt)
	if err != nil {
		return nil, err
	}

	row := match.Row(sims, 0)
	return &Prediction{
		Texts:         texts,
		Similarities:  row,
		Probabilities: match.Softmax(row, m.scale),
	}, nil
}

// LogitScale gibt den Temperaturfaktor der Softmax zurueck
func (m *Model) LogitScale() float64 {
	return m.scale
}

// Config gibt die geladene Konfiguration zurueck
func (m *Model) Config() *Config {
	return m.cfg
}

// Weights gibt das Gewichts-Inventar zurueck (nil wenn keine Datei vorhanden)
func (m *Model) Weights() *Weights {
	return m.weights
}

// Info gibt Metadaten ueber das Modell zurueck
func (m *Model) Info() Info {
	info := Info{
		Name:          filepath.Base(m.dir),
		Arch:          m.cfg.Arch(),
		EmbedDim:      m.cfg.ModelCfg.EmbedDim,
		ImageSize:     m.cfg.ModelCfg.VisionCfg.ImageSize,
		ContextLength: m.cfg.ModelCfg.TextCfg.ContextLength,
		Backend:       m.backend.Info(),
		LogitScale:    m.scale,
	}
	if m.weights != nil {
		info.WeightsFormat = m.weights.Format
		info.TensorCount = len(m.weights.Tensors)
	}
	return info
}

// Close gibt das Backend frei. Weitere Aufrufe liefern ErrModelClosed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	err := m.backend.Close()
	if m.cache != nil {
		err = errors.Join(err, cache.Close(m.cache))
	}
	return err
}
