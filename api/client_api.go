// client_api.go - API-Methoden des clipserve Clients
// Enthaelt: Analyze, SearchImages, EmbedText, EmbedImage, Health, Version, Model, WaitReady
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrModelFailed wird von WaitReady geliefert, wenn der Server das Modell nicht laden konnte
var ErrModelFailed = errors.New("model failed to load")

// Analyze bewertet ein Bild gegen eine Liste von Kandidaten-Labels.
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	texts, err := json.Marshal(req.Texts)
	if err != nil {
		return nil, err
	}

	f := newForm()
	f.file("image", req.Image)
	f.field("texts", string(texts))
	body, err := f.finish()
	if err != nil {
		return nil, err
	}

	var resp AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/api/analyze", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchImages sortiert Bilder nach Aehnlichkeit zu einer Textanfrage.
func (c *Client) SearchImages(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	f := newForm()
	f.field("text_query", req.Query)
	for _, img := range req.Images {
		f.file("images", img)
	}
	if req.TopK > 0 {
		f.field("top_k", strconv.Itoa(req.TopK))
	}
	if req.IncludeImageData != nil {
		f.field("include_image_data", strconv.FormatBool(*req.IncludeImageData))
	}
	body, err := f.finish()
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/search_images", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EmbedText erzeugt Text-Embeddings.
func (c *Client) EmbedText(ctx context.Context, req *EmbedTextRequest) (*EmbedTextResponse, error) {
	var resp EmbedTextResponse
	if err := c.do(ctx, http.MethodPost, "/api/embed/text", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EmbedImage erzeugt das Embedding eines Bildes.
func (c *Client) EmbedImage(ctx context.Context, img ImageFile) (*EmbedImageResponse, error) {
	f := newForm()
	f.file("image", img)
	body, err := f.finish()
	if err != nil {
		return nil, err
	}

	var resp EmbedImageResponse
	if err := c.do(ctx, http.MethodPost, "/api/embed/image", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fragt den Serverzustand ab.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Version returns the clipserve server version as a string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version VersionResponse
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &version); err != nil {
		return "", err
	}

	return version.Version, nil
}

// Model gibt Metadaten ueber das geladene Modell zurueck.
func (c *Client) Model(ctx context.Context) (*ModelResponse, error) {
	var resp ModelResponse
	if err := c.do(ctx, http.MethodGet, "/api/model", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitReady wartet mit exponentiellem Backoff, bis das Modell geladen ist.
// maxWait <= 0 wartet bis ctx endet.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = max(maxWait, 0)

	op := func() error {
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		switch h.ModelState {
		case ModelStateReady:
			return nil
		case ModelStateFailed:
			if h.Error != "" {
				return backoff.Permanent(fmt.Errorf("%w: %s", ErrModelFailed, h.Error))
			}
			return backoff.Permanent(ErrModelFailed)
		default:
			return fmt.Errorf("model state %q", h.ModelState)
		}
	}

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
