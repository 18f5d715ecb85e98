// MODUL: preprocess
// ZWECK: Vollstaendige Bild-Vorverarbeitung fuer den OpenCLIP-Bildencoder
// INPUT: Bild-Bytes oder ImageInput, Preprocessor-Konfiguration
// OUTPUT: float32-Tensor [3, Size, Size] im CHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw (extern)
// HINWEISE: Default ist "squash" (direktes Resize auf Size x Size ohne Crop)

package vision

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// Interpolation bestimmt den Resampling-Kernel
type Interpolation string

const (
	InterpolationBilinear Interpolation = "bilinear"
	InterpolationBicubic  Interpolation = "bicubic"
	InterpolationNearest  Interpolation = "nearest"
)

// scaler liefert den passenden x/image/draw Scaler
func (i Interpolation) scaler() draw.Scaler {
	switch i {
	case InterpolationBicubic:
		return draw.CatmullRom
	case InterpolationNearest:
		return draw.NearestNeighbor
	default:
		return draw.BiLinear
	}
}

// ResizeMode bestimmt wie ein nicht-quadratisches Bild auf Size x Size kommt
type ResizeMode string

const (
	// ResizeSquash skaliert direkt auf Size x Size (Seitenverhaeltnis geht verloren)
	ResizeSquash ResizeMode = "squash"
	// ResizeShortest skaliert die kuerzere Kante auf Size und schneidet zentriert
	ResizeShortest ResizeMode = "shortest"
	// ResizeLongest skaliert die laengere Kante auf Size und fuellt auf
	ResizeLongest ResizeMode = "longest"
)

// ParseInterpolation wandelt einen Konfigurationswert in eine Interpolation um
func ParseInterpolation(s string) (Interpolation, error) {
	switch i := Interpolation(strings.ToLower(strings.TrimSpace(s))); i {
	case "":
		return InterpolationBilinear, nil
	case InterpolationBilinear, InterpolationBicubic, InterpolationNearest:
		return i, nil
	default:
		return "", fmt.Errorf("unknown interpolation %q", s)
	}
}

// ParseResizeMode wandelt einen Konfigurationswert in einen ResizeMode um
func ParseResizeMode(s string) (ResizeMode, error) {
	switch m := ResizeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ResizeSquash, nil
	case ResizeSquash, ResizeShortest, ResizeLongest:
		return m, nil
	default:
		return "", fmt.Errorf("unknown resize mode %q", s)
	}
}

// Preprocessor fasst alle Parameter der Bild-Vorverarbeitung zusammen
type Preprocessor struct {
	Size          int
	Mean          [3]float32
	Std           [3]float32
	Interpolation Interpolation
	ResizeMode    ResizeMode
	FillColor     color.Color
}

// DefaultPreprocessor gibt die OpenCLIP-Standardwerte fuer eine Bildgroesse zurueck
func DefaultPreprocessor(size int) Preprocessor {
	return Preprocessor{
		Size:          size,
		Mean:          ClipMean,
		Std:           ClipStd,
		Interpolation: InterpolationBilinear,
		ResizeMode:    ResizeSquash,
		FillColor:     color.Black,
	}
}

// Process dekodiert Bild-Bytes und liefert den normalisierten Tensor
func (p Preprocessor) Process(data []byte) ([]float32, error) {
	img, err := LoadImageFromBytes(data)
	if err != nil {
		return nil, err
	}
	return p.ProcessImage(img)
}

// ProcessImage liefert den normalisierten CHW-Tensor fuer ein dekodiertes Bild
func (p Preprocessor) ProcessImage(img *ImageInput) ([]float32, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("invalid image size: %d", p.Size)
	}

	var (
		out *ImageInput
		err error
	)

	switch p.ResizeMode {
	case ResizeShortest:
		out, err = ResizeShortestEdge(img, p.Size, p.Interpolation)
		if err == nil {
			out, err = CenterCrop(out, p.Size, p.Size)
		}
	case ResizeLongest:
		out, err = ResizeWithAspect(img, p.Size, p.Size, p.Interpolation)
		if err == nil {
			fill := p.FillColor
			if fill == nil {
				fill = color.Black
			}
			out = Pad(out, p.Size, p.Size, fill)
		}
	default:
		out, err = ResizeImage(img, p.Size, p.Size, p.Interpolation)
	}
	if err != nil {
		return nil, err
	}

	return NormalizeRGB(out, p.Mean, p.Std), nil
}

// TensorLen gibt die Anzahl float32-Werte pro Bild zurueck
func (p Preprocessor) TensorLen() int {
	return 3 * p.Size * p.Size
}
