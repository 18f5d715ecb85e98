// MODUL: errors
// ZWECK: Fehler-Definitionen und Error-Handler fuer die HTTP-API
// INPUT: Fehler, gin.Context
// OUTPUT: JSON-Fehler {"error": ..., "code": ...}
// NEBENEFFEKTE: HTTP-Responses schreiben
// ABHAENGIGKEITEN: gin-gonic/gin, api, match, openclip, vision
// HINWEISE: Fehler-Codes sind in api/types.go definiert

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/match"
	"github.com/PeterGuy326/react-vision/openclip"
	"github.com/PeterGuy326/react-vision/vision"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// errModelLoading solange das Modell im Hintergrund laedt
	errModelLoading = errors.New("model loading")

	// errModelNotLoaded nach einem fehlgeschlagenen Laden
	errModelNotLoaded = errors.New("model not loaded")

	errMissingImage  = errors.New("missing image")
	errMissingTexts  = errors.New("missing texts")
	errInvalidTexts  = errors.New("texts must be a JSON array of strings")
	errMissingQuery  = errors.New("missing text_query")
	errMissingImages = errors.New("at least one image is required")
	errTooManyImages = errors.New("too many images")
	errInvalidField  = errors.New("invalid form field")
)

// apiStatus ist Status und Code eines bekannten Fehlers
type apiStatus struct {
	status int
	code   string
}

// ============================================================================
// Fehler-Code Mapping
// ============================================================================

// errorCodes mappt Sentinel-Fehler auf HTTP-Status und API-Code
var errorCodes = []struct {
	err error
	apiStatus
}{
	{errModelLoading, apiStatus{http.StatusServiceUnavailable, api.CodeModelLoading}},
	{errModelNotLoaded, apiStatus{http.StatusInternalServerError, api.CodeModelNotLoaded}},
	{openclip.ErrModelClosed, apiStatus{http.StatusServiceUnavailable, api.CodeModelNotLoaded}},
	{errMissingImage, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errMissingTexts, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errInvalidTexts, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errMissingQuery, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errMissingImages, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errInvalidField, apiStatus{http.StatusBadRequest, api.CodeBadRequest}},
	{errTooManyImages, apiStatus{http.StatusBadRequest, api.CodeTooManyImages}},
	{openclip.ErrEmptyInput, apiStatus{http.StatusBadRequest, api.CodeEmptyInput}},
	{vision.ErrUnknownFormat, apiStatus{http.StatusBadRequest, api.CodeInvalidImage}},
	{vision.ErrUnsupportedFormat, apiStatus{http.StatusBadRequest, api.CodeInvalidImage}},
	{vision.ErrDecode, apiStatus{http.StatusBadRequest, api.CodeInvalidImage}},
	{openclip.ErrDimensionMismatch, apiStatus{http.StatusInternalServerError, api.CodeInferenceFailed}},
	{match.ErrDimensionMismatch, apiStatus{http.StatusInternalServerError, api.CodeInferenceFailed}},
	{match.ErrNonFinite, apiStatus{http.StatusInternalServerError, api.CodeInferenceFailed}},
}

// statusFor gibt Status und Code fuer einen Fehler zurueck
func statusFor(err error) apiStatus {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return apiStatus{http.StatusRequestEntityTooLarge, api.CodePayloadTooLarge}
	}

	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.apiStatus
		}
	}

	return apiStatus{http.StatusInternalServerError, api.CodeInternal}
}

// ============================================================================
// HTTP Response Helper
// ============================================================================

// abortWithError schreibt einen Fehler als JSON Response
func abortWithError(c *gin.Context, err error) {
	st := statusFor(err)
	if st.status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	}

	c.AbortWithStatusJSON(st.status, api.ErrorResponse{
		Error: err.Error(),
		Code:  st.code,
	})
}
