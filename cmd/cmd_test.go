package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/match"
	"github.com/PeterGuy326/react-vision/openclip"
)

func TestParseBatchSizes(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "1", want: []int{1}},
		{in: "1, 4,8", want: []int{1, 4, 8}},
		{in: "2,,4", want: []int{2, 4}},
		{in: "0", wantErr: true},
		{in: "a", wantErr: true},
		{in: " , ", wantErr: true},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBatchSizes(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHumanCount(t *testing.T) {
	cases := map[int64]string{
		12:            "12",
		1_500:         "1.50K",
		151_277_313:   "151.28M",
		2_000_000_000: "2.00B",
	}
	for n, want := range cases {
		if got := humanCount(n); got != want {
			t.Errorf("humanCount(%d) = %q, erwartet %q", n, got, want)
		}
	}
}

func TestWriteLabels(t *testing.T) {
	var buf bytes.Buffer
	writeLabels(&buf, []match.Label{
		{Text: "a cat", Similarity: 0.31, Probability: 0.9},
		{Text: "a dog", Similarity: 0.22, Probability: 0.1},
	})

	out := buf.String()
	assert.Contains(t, out, "LABEL")
	assert.Contains(t, out, "a cat")
	assert.Contains(t, out, "90.00%")
	assert.Less(t, strings.Index(out, "a cat"), strings.Index(out, "a dog"))
}

func TestWriteSearchResults(t *testing.T) {
	var buf bytes.Buffer
	writeSearchResults(&buf, &api.SearchResponse{
		Query:           "red",
		TotalImages:     3,
		ProcessedImages: 2,
		Results: []api.SearchResult{
			{ImageIndex: 2, ImageName: "b.png", Similarity: 0.3, Probability: 1, Relevance: 0.6},
			{ImageIndex: 0, ImageName: "a.png", Similarity: 0.2, Probability: 1, Relevance: 0.4},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "b.png")
	assert.Contains(t, out, "RELEVANCE")
	assert.Contains(t, out, "60.00%")
	assert.Contains(t, out, "1 of 3 images could not be decoded")
}

func TestTypescript(t *testing.T) {
	ts, err := convertTypescript()
	require.NoError(t, err)

	for _, name := range []string{"AnalyzeResponse", "SearchResponse", "HealthResponse", "ModelResponse"} {
		assert.Contains(t, ts, "interface "+name)
	}
	assert.Contains(t, ts, "processed_images")
	assert.Contains(t, ts, "relevance")
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	config := `{"model_name": "ViT-B-32", "model_cfg": {"embed_dim": 512}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, openclip.ConfigFile), []byte(config), 0o644))

	cmd := newInfoCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "ViT-B-32")
	assert.Contains(t, out, "512")
	assert.Contains(t, out, "weights     unavailable")
}

func TestInfoMissingConfig(t *testing.T) {
	cmd := newInfoCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir()})
	assert.ErrorIs(t, cmd.Execute(), openclip.ErrConfigNotFound)
}

// fakeServer beantwortet health, analyze und search_images
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok", ModelLoaded: true, ModelState: api.ModelStateReady})
	})
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		var texts []string
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("texts")), &texts))
		assert.Equal(t, []string{"a cat", "a dog"}, texts)

		json.NewEncoder(w).Encode(api.AnalyzeResponse{Results: []api.LabelResult{
			{Text: "a dog", Similarity: 0.3, Probability: 0.75},
			{Text: "a cat", Similarity: 0.2, Probability: 0.25},
		}})
	})
	mux.HandleFunc("/api/search_images", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a dog", r.FormValue("text_query"))
		assert.Equal(t, "false", r.FormValue("include_image_data"))
		assert.Len(t, r.MultipartForm.File["images"], 2)

		json.NewEncoder(w).Encode(api.SearchResponse{
			Query:           "a dog",
			TotalImages:     2,
			ProcessedImages: 2,
			Results:         []api.SearchResult{{ImageIndex: 1, ImageName: "two.png", Similarity: 0.4, Probability: 1, Relevance: 0.7}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("CLIP_HOST", srv.URL)
	return srv
}

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("\x89PNG fake"), 0o644))
	}
	return paths
}

func TestAnalyzeCommand(t *testing.T) {
	fakeServer(t)
	paths := writeImages(t, "one.png")

	cmd := newAnalyzeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{paths[0], "a cat", "a dog"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), `Best match: "a dog" (75.00%)`)
}

func TestSearchCommand(t *testing.T) {
	fakeServer(t)
	paths := writeImages(t, "one.png", "two.png")

	cmd := newSearchCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(append([]string{"a dog"}, paths...))
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "two.png")
}

func TestAnalyzeMissingImage(t *testing.T) {
	fakeServer(t)

	cmd := newAnalyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.png"), "a cat"})
	assert.ErrorIs(t, cmd.Execute(), os.ErrNotExist)
}
