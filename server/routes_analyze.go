// routes_analyze.go - Handler fuer POST /api/analyze
// Bewertet ein hochgeladenes Bild gegen eine Liste von Kandidaten-Labels

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/match"
)

// AnalyzeHandler verarbeitet multipart image + texts (JSON-Array)
func (s *Server) AnalyzeHandler(c *gin.Context) {
	m, err := s.model.get()
	if err != nil {
		abortWithError(c, err)
		return
	}

	data, _, err := formImage(c, "image")
	if err != nil {
		abortWithError(c, err)
		return
	}

	texts, err := parseTexts(c.Request.FormValue("texts"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	pred, err := m.Predict(c.Request.Context(), data, texts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.AnalyzeResponse{Results: labelResults(pred.Ranked())})
}

// parseTexts dekodiert das texts-Feld. Leere Eingaben sind Fehler.
func parseTexts(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errMissingTexts
	}

	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, errInvalidTexts
	}
	if len(texts) == 0 {
		return nil, errMissingTexts
	}
	return texts, nil
}

func labelResults(labels []match.Label) []api.LabelResult {
	out := make([]api.LabelResult, len(labels))
	for i, l := range labels {
		out[i] = api.LabelResult{
			Text:        l.Text,
			Similarity:  l.Similarity,
			Probability: l.Probability,
		}
	}
	return out
}
