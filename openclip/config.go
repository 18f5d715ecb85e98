// MODUL: config
// ZWECK: Laden und Validieren von open_clip_config.json
// INPUT: Modellverzeichnis
// OUTPUT: Config mit Modell- und Vorverarbeitungsparametern
// NEBENEFFEKTE: Liest eine Datei
// ABHAENGIGKEITEN: vision (Mean/Std, Interpolation, ResizeMode)
// HINWEISE: Fehlende Werte werden mit ViT-B-32 Defaults gefuellt

package openclip

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PeterGuy326/react-vision/openclip/tokenizer"
	"github.com/PeterGuy326/react-vision/vision"
)

// Dateinamen im Modellverzeichnis
const (
	ConfigFile      = "open_clip_config.json"
	SafetensorsFile = "open_clip_model.safetensors"
	PytorchFile     = "open_clip_pytorch_model.bin"
	VocabFile       = "bpe_simple_vocab_16e6.txt.gz"
)

// Standardwerte fuer ViT-B-32
const (
	DefaultImageSize = 224
	DefaultEmbedDim  = 512
)

// Config entspricht open_clip_config.json
type Config struct {
	ModelName     string        `json:"model_name,omitempty"`
	ModelCfg      ModelCfg      `json:"model_cfg"`
	PreprocessCfg PreprocessCfg `json:"preprocess_cfg"`
}

type ModelCfg struct {
	EmbedDim  int       `json:"embed_dim"`
	QuickGELU bool      `json:"quick_gelu,omitempty"`
	VisionCfg VisionCfg `json:"vision_cfg"`
	TextCfg   TextCfg   `json:"text_cfg"`
}

type VisionCfg struct {
	ImageSize int `json:"image_size"`
	Layers    int `json:"layers,omitempty"`
	Width     int `json:"width,omitempty"`
	PatchSize int `json:"patch_size,omitempty"`
}

type TextCfg struct {
	ContextLength int `json:"context_length"`
	VocabSize     int `json:"vocab_size"`
	Width         int `json:"width,omitempty"`
	Heads         int `json:"heads,omitempty"`
	Layers        int `json:"layers,omitempty"`
}

type PreprocessCfg struct {
	Mean          []float32 `json:"mean,omitempty"`
	Std           []float32 `json:"std,omitempty"`
	Interpolation string    `json:"interpolation,omitempty"`
	ResizeMode    string    `json:"resize_mode,omitempty"`
}

// LoadConfig liest und validiert open_clip_config.json aus dir
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	} else if err != nil {
		return nil, err
	}

	return ParseConfig(data)
}

// ParseConfig dekodiert und validiert eine Konfiguration
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ModelCfg.EmbedDim == 0 {
		c.ModelCfg.EmbedDim = DefaultEmbedDim
	}
	if c.ModelCfg.VisionCfg.ImageSize == 0 {
		c.ModelCfg.VisionCfg.ImageSize = DefaultImageSize
	}
	if c.ModelCfg.TextCfg.ContextLength == 0 {
		c.ModelCfg.TextCfg.ContextLength = tokenizer.DefaultContextLength
	}
	if c.ModelCfg.TextCfg.VocabSize == 0 {
		c.ModelCfg.TextCfg.VocabSize = tokenizer.DefaultVocabSize
	}
	if len(c.PreprocessCfg.Mean) == 0 {
		c.PreprocessCfg.Mean = append([]float32(nil), vision.ClipMean[:]...)
	}
	if len(c.PreprocessCfg.Std) == 0 {
		c.PreprocessCfg.Std = append([]float32(nil), vision.ClipStd[:]...)
	}
	if c.PreprocessCfg.Interpolation == "" {
		c.PreprocessCfg.Interpolation = string(vision.InterpolationBilinear)
	}
	if c.PreprocessCfg.ResizeMode == "" {
		c.PreprocessCfg.ResizeMode = string(vision.ResizeSquash)
	}
}

func (c *Config) validate() error {
	if len(c.PreprocessCfg.Mean) != 3 || len(c.PreprocessCfg.Std) != 3 {
		return fmt.Errorf("%w: mean and std need 3 values", ErrInvalidConfig)
	}
	for _, s := range c.PreprocessCfg.Std {
		if s <= 0 {
			return fmt.Errorf("%w: std must be positive", ErrInvalidConfig)
		}
	}
	if c.ModelCfg.EmbedDim < 0 || c.ModelCfg.VisionCfg.ImageSize < 0 || c.ModelCfg.TextCfg.ContextLength < 3 {
		return fmt.Errorf("%w: negative or too small dimensions", ErrInvalidConfig)
	}
	if _, err := vision.ParseInterpolation(c.PreprocessCfg.Interpolation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := vision.ParseResizeMode(c.PreprocessCfg.ResizeMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Arch gibt den Architekturnamen zurueck, z.B. "ViT-B-32"
func (c *Config) Arch() string {
	if c.ModelName != "" {
		return c.ModelName
	}

	v := c.ModelCfg.VisionCfg
	size := map[int]string{768: "B", 1024: "L", 1280: "H", 1408: "g", 1664: "bigG"}[v.Width]
	if size == "" {
		if v.Width == 0 {
			return "ViT-B-32"
		}
		size = fmt.Sprint(v.Width)
	}
	if v.PatchSize == 0 {
		return "ViT-" + size
	}
	return fmt.Sprintf("ViT-%s-%d", size, v.PatchSize)
}

// Preprocessor baut die Bild-Vorverarbeitung aus der Konfiguration
func (c *Config) Preprocessor() vision.Preprocessor {
	p := vision.DefaultPreprocessor(c.ModelCfg.VisionCfg.ImageSize)
	copy(p.Mean[:], c.PreprocessCfg.Mean)
	copy(p.Std[:], c.PreprocessCfg.Std)
	// validate hat die Werte bereits geprueft
	p.Interpolation, _ = vision.ParseInterpolation(c.PreprocessCfg.Interpolation)
	p.ResizeMode, _ = vision.ParseResizeMode(c.PreprocessCfg.ResizeMode)
	return p
}
