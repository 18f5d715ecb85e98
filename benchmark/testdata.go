// MODUL: testdata
// ZWECK: Generierung von synthetischen Testbildern fuer Benchmarks und predict --random-image
// INPUT: Bildgroesse (width, height), Batch-Anzahl, Seed
// OUTPUT: JPEG- oder PNG-kodierte Testbilder als Byte-Slices
// NEBENEFFEKTE: Keine (rein speicherbasiert)
// ABHAENGIGKEITEN: image, image/jpeg, image/png (stdlib)
// HINWEISE: Gradienten-Muster fuer realistische Kompressionsraten

package benchmark

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
)

// ============================================================================
// Testbild-Generierung
// ============================================================================

// GenerateTestImage generiert ein JPEG-kodiertes Gradienten-Testbild.
func GenerateTestImage(width, height int, seed int64) []byte {
	return encodeJPEG(createGradientImage(width, height, seed))
}

// GenerateTestBatch generiert count unterschiedliche Testbilder.
func GenerateTestBatch(width, height, count int) [][]byte {
	batch := make([][]byte, count)
	for i := range batch {
		batch[i] = GenerateTestImage(width, height, int64(i*1000))
	}
	return batch
}

// GenerateNoiseImage erzeugt ein PNG mit gleichverteiltem RGB-Rauschen.
func GenerateNoiseImage(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(255))
		img.Pix[i+1] = uint8(rng.Intn(255))
		img.Pix[i+2] = uint8(rng.Intn(255))
		img.Pix[i+3] = 255
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// ============================================================================
// Bild-Erstellung
// ============================================================================

// createGradientImage erstellt ein Bild mit Farbgradient und Rauschen.
func createGradientImage(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, pixelColor(x, y, width, height, rng))
		}
	}

	return img
}

// pixelColor berechnet die Farbe eines Pixels basierend auf Position.
func pixelColor(x, y, width, height int, rng *rand.Rand) color.RGBA {
	nx := float64(x) / float64(width)
	ny := float64(y) / float64(height)

	noise := int(rng.Float64()*20 - 10)
	return color.RGBA{
		R: clampUint8(int(nx*255) + noise),
		G: clampUint8(int(ny*255) + noise),
		B: clampUint8(int((nx+ny)/2*255) + noise),
		A: 255,
	}
}

// encodeJPEG kodiert ein Bild als JPEG mit Standard-Qualitaet.
func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// clampUint8 begrenzt einen int-Wert auf den uint8-Bereich.
func clampUint8(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}
