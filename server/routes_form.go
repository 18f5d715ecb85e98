// routes_form.go - Hilfsfunktionen fuer Multipart-Formulare
// Enthaelt: parseForm(), formImage(), readFormFile(), formInt(), formBool(), dataURI()

package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/vision"
)

// multipartMemory ist der Teil eines Uploads, der im Speicher gehalten wird
const multipartMemory = 32 << 20

// parseForm liest ein Multipart-Formular. Zu grosse Bodies behalten ihren MaxBytesError.
func parseForm(c *gin.Context) error {
	if c.Request.MultipartForm != nil {
		return nil
	}

	err := c.Request.ParseMultipartForm(multipartMemory)
	if err == nil {
		return nil
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: %v", errInvalidField, err)
}

// formImage liest die Datei im Feld field
func formImage(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	if err := parseForm(c); err != nil {
		return nil, nil, err
	}

	files := c.Request.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil, errMissingImage
	}

	data, err := readFormFile(files[0])
	if err != nil {
		return nil, nil, err
	}
	return data, files[0], nil
}

// readFormFile liest eine hochgeladene Datei vollstaendig
func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// formInt liest ein optionales nicht-negatives Integer-Feld
func formInt(c *gin.Context, field string, def int) (int, error) {
	s := strings.TrimSpace(c.Request.FormValue(field))
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", errInvalidField, field, s)
	}
	return n, nil
}

// formBool liest ein optionales Bool-Feld
func formBool(c *gin.Context, field string, def bool) (bool, error) {
	s := strings.TrimSpace(c.Request.FormValue(field))
	if s == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", errInvalidField, field, s)
	}
	return b, nil
}

// dataURI kodiert Bilddaten als data:-URI mit erkanntem MIME-Type
func dataURI(data []byte) string {
	mime := vision.DetectFormat(data).MimeType()
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
