// MODUL: formats
// ZWECK: Bildformat-Erkennung und Validierung fuer hochgeladene Bilder
// INPUT: Bild-Bytes oder Format-String
// OUTPUT: ImageFormat, Fehler bei ungueltigem Format
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: gabriel-vasile/mimetype
// HINWEISE: Erkennung per Content-Sniffing. Andere image/* Typen gelten als nicht unterstuetzt.

package vision

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ImageFormat repraesentiert ein unterstuetztes Bildformat
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatGIF     ImageFormat = "gif"
	FormatWebP    ImageFormat = "webp"
	FormatBMP     ImageFormat = "bmp"
	FormatUnknown ImageFormat = "unknown"
)

// supportedFormats in Erkennungsreihenfolge
var supportedFormats = []ImageFormat{FormatJPEG, FormatPNG, FormatGIF, FormatWebP, FormatBMP}

// ErrUnknownFormat wird zurueckgegeben wenn Format nicht erkannt wurde
var ErrUnknownFormat = errors.New("unknown image format")

// ErrUnsupportedFormat wird zurueckgegeben bei ungueltigem Format
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrDecode wird zurueckgegeben wenn die Bilddaten nicht dekodierbar sind
var ErrDecode = errors.New("image decode failed")

// DetectFormat erkennt das Bildformat anhand des Inhalts.
// Nicht unterstuetzte Bildtypen kommen als ImageFormat("tiff") usw. zurueck.
func DetectFormat(data []byte) ImageFormat {
	mime := mimetype.Detect(data)
	for _, f := range supportedFormats {
		if mime.Is(f.MimeType()) {
			return f
		}
	}

	if sub, ok := strings.CutPrefix(mime.String(), "image/"); ok {
		return ImageFormat(sub)
	}
	return FormatUnknown
}

// ValidateFormat prueft ob ein Format unterstuetzt wird
func ValidateFormat(format ImageFormat) error {
	switch format {
	case FormatJPEG, FormatPNG, FormatGIF, FormatWebP, FormatBMP:
		return nil
	case FormatUnknown:
		return ErrUnknownFormat
	default:
		return ErrUnsupportedFormat
	}
}

// MimeType gibt den MIME-Type fuer ein Format zurueck
func (f ImageFormat) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// String implementiert Stringer Interface
func (f ImageFormat) String() string {
	return string(f)
}
