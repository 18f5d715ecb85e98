package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewClient(base, srv.Client())
}

func TestClientAnalyze(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "clipserve/"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, `["a cat","a dog"]`, r.FormValue("texts"))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cat.png", hdr.Filename)
		assert.Equal(t, []byte("png-bytes"), data)

		json.NewEncoder(w).Encode(AnalyzeResponse{Results: []LabelResult{
			{Text: "a cat", Similarity: 0.3, Probability: 0.9},
			{Text: "a dog", Similarity: 0.1, Probability: 0.1},
		}})
	})

	resp, err := c.Analyze(context.Background(), &AnalyzeRequest{
		Image: ImageFile{Name: "cat.png", Data: []byte("png-bytes")},
		Texts: []string{"a cat", "a dog"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	best, ok := resp.Best()
	assert.True(t, ok)
	assert.Equal(t, "a cat", best.Text)
}

func TestClientSearchImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search_images", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "red car", r.FormValue("text_query"))
		assert.Equal(t, "1", r.FormValue("top_k"))
		assert.Equal(t, "false", r.FormValue("include_image_data"))
		assert.Len(t, r.MultipartForm.File["images"], 2)

		json.NewEncoder(w).Encode(SearchResponse{
			Query:           "red car",
			TotalImages:     2,
			ProcessedImages: 2,
			Results:         []SearchResult{{ImageIndex: 1, ImageName: "b.jpg", Similarity: 0.4, Probability: 1, Relevance: 0.7}},
		})
	})

	include := false
	resp, err := c.SearchImages(context.Background(), &SearchRequest{
		Query:            "red car",
		Images:           []ImageFile{{Name: "a.jpg", Data: []byte("a")}, {Name: "b.jpg", Data: []byte("b")}},
		TopK:             1,
		IncludeImageData: &include,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalImages)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "b.jpg", resp.Results[0].ImageName)
}

func TestClientEmbedText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req EmbedTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req.Texts)

		json.NewEncoder(w).Encode(EmbedTextResponse{Embeddings: [][]float32{{1, 0}}, Dimensions: 2})
	})

	resp, err := c.EmbedText(context.Background(), &EmbedTextRequest{Texts: []string{"hello"}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Dimensions)
	assert.Equal(t, [][]float32{{1, 0}}, resp.Embeddings)
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model loading","code":"MODEL_LOADING"}`))
	})

	_, err := c.Model(context.Background())
	var se StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "model loading", se.ErrorMessage)
	assert.Equal(t, CodeModelLoading, se.Code)
}

func TestClientStatusErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := c.Version(context.Background())
	var se StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream down", se.ErrorMessage)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClientWaitReady(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		state := ModelStateLoading
		if calls.Add(1) >= 3 {
			state = ModelStateReady
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", ModelLoaded: state == ModelStateReady, ModelState: state})
	})

	require.NoError(t, c.WaitReady(context.Background(), 30*time.Second))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestClientWaitReadyFailed(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", ModelState: ModelStateFailed, Error: "config not found"})
	})

	err := c.WaitReady(context.Background(), 30*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelFailed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientWaitReadyContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", ModelState: ModelStateLoading})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	assert.Error(t, c.WaitReady(ctx, 0))
}
