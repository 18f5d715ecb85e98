package openclip

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PeterGuy326/react-vision/vision"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"model_cfg": {}}`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	if cfg.ModelCfg.EmbedDim != DefaultEmbedDim {
		t.Errorf("EmbedDim = %d, erwartet %d", cfg.ModelCfg.EmbedDim, DefaultEmbedDim)
	}
	if cfg.ModelCfg.VisionCfg.ImageSize != 224 || cfg.ModelCfg.TextCfg.ContextLength != 77 || cfg.ModelCfg.TextCfg.VocabSize != 49408 {
		t.Errorf("Defaults = %+v", cfg.ModelCfg)
	}

	p := cfg.Preprocessor()
	if p.Mean != vision.ClipMean || p.Std != vision.ClipStd {
		t.Errorf("Mean/Std = %v/%v, erwartet CLIP-Werte", p.Mean, p.Std)
	}
	if p.Interpolation != vision.InterpolationBilinear || p.ResizeMode != vision.ResizeSquash {
		t.Errorf("Interpolation/ResizeMode = %s/%s", p.Interpolation, p.ResizeMode)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"kein json":        `{`,
		"mean zu kurz":     `{"preprocess_cfg": {"mean": [0.5, 0.5]}}`,
		"std null":         `{"preprocess_cfg": {"std": [0.5, 0, 0.5]}}`,
		"interpolation":    `{"preprocess_cfg": {"interpolation": "lanczos"}}`,
		"resize mode":      `{"preprocess_cfg": {"resize_mode": "stretch"}}`,
		"context zu klein": `{"model_cfg": {"text_cfg": {"context_length": 2}}}`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(data)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, erwartet ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, erwartet ErrConfigNotFound", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Preprocessor().Mean != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("Mean = %v", cfg.Preprocessor().Mean)
	}
}

func TestArch(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{ModelName: "ViT-B-16"}, "ViT-B-16"},
		{Config{ModelCfg: ModelCfg{VisionCfg: VisionCfg{Width: 1024, PatchSize: 14}}}, "ViT-L-14"},
		{Config{ModelCfg: ModelCfg{VisionCfg: VisionCfg{Width: 768, PatchSize: 32}}}, "ViT-B-32"},
		{Config{ModelCfg: ModelCfg{VisionCfg: VisionCfg{Width: 512, PatchSize: 16}}}, "ViT-512-16"},
		{Config{}, "ViT-B-32"},
	}

	for _, tt := range cases {
		if got := tt.cfg.Arch(); got != tt.want {
			t.Errorf("Arch() = %q, erwartet %q", got, tt.want)
		}
	}
}
