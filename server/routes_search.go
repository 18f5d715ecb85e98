// routes_search.go - Handler fuer POST /api/search_images
// Sortiert hochgeladene Bilder nach Aehnlichkeit zu einer Textanfrage.
// Nicht dekodierbare Bilder werden protokolliert und uebersprungen.

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/match"
	"github.com/PeterGuy326/react-vision/openclip"
)

// searchItem ist ein erfolgreich kodiertes Bild
type searchItem struct {
	index int
	name  string
	data  []byte
	vec   []float32
}

// SearchImagesHandler verarbeitet multipart text_query + images
func (s *Server) SearchImagesHandler(c *gin.Context) {
	m, err := s.model.get()
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := parseForm(c); err != nil {
		abortWithError(c, err)
		return
	}

	query := c.Request.FormValue("text_query")
	if strings.TrimSpace(query) == "" {
		abortWithError(c, errMissingQuery)
		return
	}

	files := c.Request.MultipartForm.File["images"]
	if len(files) == 0 {
		abortWithError(c, errMissingImages)
		return
	}
	if s.limits.MaxImages > 0 && len(files) > s.limits.MaxImages {
		abortWithError(c, fmt.Errorf("%w: %d > %d", errTooManyImages, len(files), s.limits.MaxImages))
		return
	}

	topK, err := formInt(c, "top_k", 0)
	if err != nil {
		abortWithError(c, err)
		return
	}
	includeData, err := formBool(c, "include_image_data", true)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	textVecs, err := m.EncodeText(ctx, []string{query})
	if err != nil {
		abortWithError(c, err)
		return
	}

	// Bilder parallel kodieren, jedes Ergebnis hat seinen festen Slot
	slots := make([]*searchItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.NumParallel)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			data, err := readFormFile(fh)
			if err != nil {
				slog.Warn("skipping image", "index", i, "name", fh.Filename, "error", err)
				return nil
			}

			vec, err := m.EncodeImage(gctx, data)
			switch {
			case err == nil:
			case gctx.Err() != nil:
				return gctx.Err()
			case errors.Is(err, openclip.ErrModelClosed):
				return err
			default:
				slog.Warn("skipping image", "index", i, "name", fh.Filename, "error", err)
				return nil
			}

			slots[i] = &searchItem{index: i, name: fh.Filename, data: data, vec: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		abortWithError(c, err)
		return
	}

	var items []*searchItem
	for _, it := range slots {
		if it != nil {
			items = append(items, it)
		}
	}

	results, err := rankImages(items, textVecs[0], m.LogitScale(), topK, includeData)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SearchResponse{
		Query:           query,
		TotalImages:     len(files),
		ProcessedImages: len(items),
		Results:         results,
	})
}

// rankImages berechnet je Bild die Aehnlichkeit und den Softmax ueber die
// Anfrage (probability) sowie den Softmax ueber alle Bilder (relevance)
func rankImages(items []*searchItem, text []float32, scale float64, topK int, includeData bool) ([]api.SearchResult, error) {
	results := make([]api.SearchResult, 0, len(items))
	if len(items) == 0 {
		return results, nil
	}

	vecs := make([][]float32, len(items))
	for i, it := range items {
		vecs[i] = it.vec
	}

	sims, err := match.Similarity(vecs, [][]float32{text})
	if err != nil {
		return nil, err
	}
	col := match.Column(sims, 0)
	relevance := match.Softmax(col, scale)

	for i, it := range items {
		r := api.SearchResult{
			ImageIndex:  it.index,
			ImageName:   it.name,
			Similarity:  col[i],
			Probability: match.Softmax(match.Row(sims, i), scale)[0],
			Relevance:   relevance[i],
		}
		if includeData {
			r.ImageData = dataURI(it.data)
		}
		results = append(results, r)
	}

	return match.TopK(results, topK, func(r api.SearchResult) float64 { return r.Similarity }), nil
}
