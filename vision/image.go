// MODUL: image
// ZWECK: Bild-Lade- und Verarbeitungsfunktionen fuer die CLIP-Vorverarbeitung
// INPUT: Bild-Bytes
// OUTPUT: ImageInput Struktur mit dekodiertem RGB-Bild
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw, webp, bmp (extern), image/jpeg, image/png, image/gif
// HINWEISE: Alle Bilder werden zu deckendem RGBA konvertiert (Alpha auf Weiss)

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Standard-Decoder registrieren
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageInput enthaelt ein dekodiertes Bild mit Metadaten
type ImageInput struct {
	Image  *image.RGBA
	Width  int
	Height int
	Format ImageFormat
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten und entfernt Transparenz
func LoadImageFromBytes(data []byte) (*ImageInput, error) {
	format := DetectFormat(data)
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	rgba := toRGBA(img)
	bounds := rgba.Bounds()

	return Composite(&ImageInput{
		Image:  rgba,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}), nil
}

// toRGBA konvertiert ein beliebiges image.Image zu *image.RGBA mit Ursprung (0,0)
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// ResizeImage skaliert ein Bild auf die angegebene Groesse
func ResizeImage(img *ImageInput, width, height int, interp Interpolation) (*ImageInput, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size: %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	interp.scaler().Scale(dst, dst.Bounds(), img.Image, img.Image.Bounds(), draw.Src, nil)

	return &ImageInput{
		Image:  dst,
		Width:  width,
		Height: height,
		Format: img.Format,
	}, nil
}

// ResizeShortestEdge skaliert so, dass die kuerzere Kante size Pixel hat
func ResizeShortestEdge(img *ImageInput, size int, interp Interpolation) (*ImageInput, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid size: %d", size)
	}

	w, h := size, size
	if img.Width > img.Height {
		w = max(1, int(float64(img.Width)*float64(size)/float64(img.Height)+0.5))
	} else if img.Height > img.Width {
		h = max(1, int(float64(img.Height)*float64(size)/float64(img.Width)+0.5))
	}
	return ResizeImage(img, w, h, interp)
}

// ResizeWithAspect skaliert unter Beibehaltung des Seitenverhaeltnisses
func ResizeWithAspect(img *ImageInput, maxWidth, maxHeight int, interp Interpolation) (*ImageInput, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid size: %dx%d", maxWidth, maxHeight)
	}

	newW, newH := calculateAspectSize(img.Width, img.Height, maxWidth, maxHeight)
	return ResizeImage(img, max(1, newW), max(1, newH), interp)
}

// calculateAspectSize berechnet Zielgroesse mit Seitenverhaeltnis
func calculateAspectSize(srcW, srcH, maxW, maxH int) (int, int) {
	ratioW := float64(maxW) / float64(srcW)
	ratioH := float64(maxH) / float64(srcH)

	ratio := ratioW
	if ratioH < ratioW {
		ratio = ratioH
	}

	return int(float64(srcW) * ratio), int(float64(srcH) * ratio)
}

// Pad zentriert das Bild auf einer width x height Flaeche mit Fuellfarbe
func Pad(img *ImageInput, width, height int, fill color.Color) *ImageInput {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{fill}, image.Point{}, draw.Src)

	offset := image.Pt((width-img.Width)/2, (height-img.Height)/2)
	draw.Draw(dst, img.Image.Bounds().Add(offset), img.Image, image.Point{}, draw.Src)

	return &ImageInput{
		Image:  dst,
		Width:  width,
		Height: height,
		Format: img.Format,
	}
}

// Composite entfernt den Alpha-Kanal durch weissen Hintergrund
func Composite(img *ImageInput) *ImageInput {
	if img.Image.Opaque() {
		return img
	}

	bounds := img.Image.Bounds()
	dst := image.NewRGBA(bounds)

	// Hintergrund fuellen
	draw.Draw(dst, bounds, &image.Uniform{color.White}, image.Point{}, draw.Src)
	// Bild darueber zeichnen
	draw.Draw(dst, bounds, img.Image, bounds.Min, draw.Over)

	return &ImageInput{
		Image:  dst,
		Width:  img.Width,
		Height: img.Height,
		Format: img.Format,
	}
}

// CenterCrop schneidet einen zentrierten Bereich aus
func CenterCrop(img *ImageInput, width, height int) (*ImageInput, error) {
	if width > img.Width || height > img.Height {
		return nil, fmt.Errorf("crop larger than image: %dx%d > %dx%d", width, height, img.Width, img.Height)
	}

	offsetX := (img.Width - width) / 2
	offsetY := (img.Height - height) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img.Image, image.Pt(offsetX, offsetY), draw.Src)

	return &ImageInput{
		Image:  dst,
		Width:  width,
		Height: height,
		Format: img.Format,
	}, nil
}
