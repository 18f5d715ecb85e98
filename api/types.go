// types.go - Basis-Typen der API (Fehler, Dateien, Status)
// Enthaelt: StatusError, ErrorResponse, ImageFile, Fehlercodes
package api

import (
	"fmt"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
	Code         string `json:"code,omitempty"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the clipserve logs for details"
	}
}

// ErrorResponse ist der JSON-Body aller Fehlerantworten
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Fehlercodes im Feld "code" einer ErrorResponse
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidImage    = "INVALID_IMAGE"
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeTooManyImages   = "TOO_MANY_IMAGES"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeModelLoading    = "MODEL_LOADING"
	CodeModelNotLoaded  = "MODEL_NOT_LOADED"
	CodeInferenceFailed = "INFERENCE_FAILED"
	CodeInternal        = "INTERNAL"
)

// ImageFile ist ein Bild fuer einen Multipart-Upload
type ImageFile struct {
	// Name ist der Dateiname im Formular (z.B. "cat.jpg")
	Name string `json:"name"`

	// Data enthaelt die rohen Bild-Bytes
	Data []byte `json:"-"`
}

// Modellzustaende in HealthResponse.ModelState
const (
	ModelStateLoading = "loading"
	ModelStateReady   = "ready"
	ModelStateFailed  = "failed"
)
