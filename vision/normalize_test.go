// MODUL: normalize_test
// ZWECK: Tests fuer Normalisierungs- und Tensor-Funktionen
// INPUT: Synthetische Bilder
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image
// HINWEISE: Testet CHW Layout und Normalisierungswerte

package vision

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage erzeugt ein einfaches Testbild
func createTestImage(w, h int, c color.Color) *ImageInput {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, c)
		}
	}
	return &ImageInput{
		Image:  rgba,
		Width:  w,
		Height: h,
		Format: FormatPNG,
	}
}

func TestNormalizeRGB(t *testing.T) {
	// Graues Bild (127, 127, 127) ~ 0.5 nach Skalierung
	img := createTestImage(2, 2, color.RGBA{127, 127, 127, 255})

	// (0.5 - 0.5) / 0.5 = 0
	half := [3]float32{0.5, 0.5, 0.5}
	result := NormalizeRGB(img, half, half)

	// CHW Format: 3 Channels mit je 4 Werten
	if len(result) != 12 {
		t.Errorf("Tensor Laenge = %d, erwartet 12", len(result))
	}

	// Bei 127/255 ~ 0.498, (0.498 - 0.5) / 0.5 ~ -0.004
	tolerance := float32(0.01)
	if result[0] > tolerance || result[0] < -tolerance {
		t.Errorf("Normalisierter Wert = %f, erwartet ~0", result[0])
	}
}

func TestNormalizeRGBClipChannels(t *testing.T) {
	// Pixel (0,0) rot, Rest schwarz
	img := createTestImage(2, 1, color.Black)
	img.Image.Set(0, 0, color.RGBA{255, 0, 0, 255})

	result := NormalizeRGB(img, ClipMean, ClipStd)

	expectR0 := (1 - ClipMean[0]) / ClipStd[0]
	expectR1 := (0 - ClipMean[0]) / ClipStd[0]
	expectG0 := (0 - ClipMean[1]) / ClipStd[1]

	check := func(name string, got, want float32) {
		if math.Abs(float64(got-want)) > 1e-5 {
			t.Errorf("%s = %f, erwartet %f", name, got, want)
		}
	}
	check("R[0]", result[0], expectR0)
	check("R[1]", result[1], expectR1)
	check("G[0]", result[2], expectG0)
}
