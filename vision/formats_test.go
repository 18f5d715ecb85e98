// MODUL: formats_test
// ZWECK: Tests fuer Format-Erkennung und Validierung
// INPUT: Test-Bytes mit verschiedenen Signaturen
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, x/image/bmp
// HINWEISE: Testet die Erkennung fuer JPEG/PNG/GIF/WebP/BMP und nicht unterstuetzte Typen

package vision

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"golang.org/x/image/bmp"
)

// encodeBMP erzeugt ein echtes BMP
func encodeBMP(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tiff := []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}

	tests := []struct {
		name     string
		data     []byte
		expected ImageFormat
	}{
		{
			name:     "JPEG Magic Bytes",
			data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			expected: FormatJPEG,
		},
		{
			name:     "PNG Magic Bytes",
			data:     []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00},
			expected: FormatPNG,
		},
		{
			name:     "GIF Magic Bytes",
			data:     []byte("GIF89a\x01\x00"),
			expected: FormatGIF,
		},
		{
			name:     "WebP Magic Bytes",
			data:     []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P'},
			expected: FormatWebP,
		},
		{
			name:     "RIFF ohne WEBP",
			data:     []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 'W', 'A', 'V', 'E'},
			expected: FormatUnknown,
		},
		{
			name:     "BMP Magic Bytes",
			data:     encodeBMP(t),
			expected: FormatBMP,
		},
		{
			name:     "TIFF wird erkannt, ist aber kein unterstuetztes Format",
			data:     tiff,
			expected: ImageFormat("tiff"),
		},
		{
			name:     "Text",
			data:     []byte("hello world, no image here"),
			expected: FormatUnknown,
		},
		{
			name:     "Zu kurze Daten",
			data:     []byte{0xFF, 0xD8},
			expected: FormatUnknown,
		},
		{
			name:     "Unbekanntes Format",
			data:     []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			expected: FormatUnknown,
		},
		{
			name:     "Leere Daten",
			data:     []byte{},
			expected: FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormat(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormat() = %v, erwartet %v", result, tt.expected)
			}
		})
	}
}

func TestDetectFormatUnsupported(t *testing.T) {
	tiff := []byte{'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08}
	if err := ValidateFormat(DetectFormat(tiff)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, erwartet ErrUnsupportedFormat", err)
	}
	if err := ValidateFormat(DetectFormat([]byte{0, 0, 0, 0})); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, erwartet ErrUnknownFormat", err)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format    ImageFormat
		expectErr bool
	}{
		{FormatJPEG, false},
		{FormatPNG, false},
		{FormatGIF, false},
		{FormatWebP, false},
		{FormatBMP, false},
		{FormatUnknown, true},
		{ImageFormat("tiff"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateFormat(%v) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestImageFormatMimeType(t *testing.T) {
	tests := []struct {
		format   ImageFormat
		expected string
	}{
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
		{FormatGIF, "image/gif"},
		{FormatWebP, "image/webp"},
		{FormatBMP, "image/bmp"},
		{FormatUnknown, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.MimeType(); got != tt.expected {
				t.Errorf("MimeType() = %v, erwartet %v", got, tt.expected)
			}
		})
	}
}
