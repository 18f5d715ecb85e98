// types_clip.go - Request/Response-Typen der CLIP-Endpunkte
// Enthaelt: Analyze, SearchImages, Embed, Health, Version, Model
package api

// ============================================================================
// Analyze
// ============================================================================

// AnalyzeRequest beschreibt einen Analyse-Aufruf.
// POST /api/analyze (multipart: image, texts)
type AnalyzeRequest struct {
	// Image ist das zu klassifizierende Bild
	Image ImageFile

	// Texts sind die Kandidaten-Labels, im Formular als JSON-Array
	Texts []string
}

// LabelResult ist ein bewerteter Kandidatentext
type LabelResult struct {
	Text        string  `json:"text"`
	Similarity  float64 `json:"similarity"`
	Probability float64 `json:"probability"`
}

// AnalyzeResponse enthaelt die Labels absteigend nach Wahrscheinlichkeit
type AnalyzeResponse struct {
	Results []LabelResult `json:"results"`
}

// Best gibt das wahrscheinlichste Label zurueck
func (r *AnalyzeResponse) Best() (LabelResult, bool) {
	if len(r.Results) == 0 {
		return LabelResult{}, false
	}
	return r.Results[0], true
}

// ============================================================================
// SearchImages
// ============================================================================

// SearchRequest beschreibt eine Bildsuche per Text.
// POST /api/search_images (multipart: text_query, images, top_k, include_image_data)
type SearchRequest struct {
	Query  string
	Images []ImageFile

	// TopK begrenzt die Ergebnisse (0 = alle)
	TopK int

	// IncludeImageData steuert die Data-URIs im Ergebnis (nil = Server-Default)
	IncludeImageData *bool
}

// SearchResult ist ein bewertetes Bild.
// Probability ist der Softmax des Bildes ueber die Anfrage-Texte. Bei genau
// einer Anfrage ist er immer 1. Relevance verteilt die Wahrscheinlichkeit
// ueber alle verarbeiteten Bilder und summiert sich zu 1.
type SearchResult struct {
	ImageIndex  int     `json:"image_index"`
	ImageName   string  `json:"image_name"`
	ImageData   string  `json:"image_data,omitempty"`
	Similarity  float64 `json:"similarity"`
	Probability float64 `json:"probability"`
	Relevance   float64 `json:"relevance"`
}

// SearchResponse enthaelt die Bilder absteigend nach Aehnlichkeit
type SearchResponse struct {
	Query           string         `json:"query"`
	TotalImages     int            `json:"total_images"`
	ProcessedImages int            `json:"processed_images"`
	Results         []SearchResult `json:"results"`
}

// ============================================================================
// Embeddings
// ============================================================================

// EmbedTextRequest fordert Text-Embeddings an.
// POST /api/embed/text
type EmbedTextRequest struct {
	Texts []string `json:"texts"`
}

// EmbedTextResponse enthaelt ein L2-normiertes Embedding pro Text
type EmbedTextResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
}

// EmbedImageResponse enthaelt das L2-normierte Bild-Embedding.
// POST /api/embed/image (multipart: image)
type EmbedImageResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// ============================================================================
// Status
// ============================================================================

// HealthResponse beschreibt den Serverzustand.
// GET /api/health
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelState  string `json:"model_state"`
	Error       string `json:"error,omitempty"`
}

// VersionResponse enthaelt die Server-Version.
// GET /api/version
type VersionResponse struct {
	Version string `json:"version"`
}

// BackendInfo beschreibt die Inferenz-Runtime
type BackendInfo struct {
	Name         string `json:"name"`
	Device       string `json:"device"`
	ImageInput   string `json:"image_input,omitempty"`
	TextInput    string `json:"text_input,omitempty"`
	DynamicBatch bool   `json:"dynamic_batch"`
}

// ModelResponse beschreibt das geladene Modell.
// GET /api/model
type ModelResponse struct {
	Name          string      `json:"name"`
	Arch          string      `json:"arch"`
	EmbedDim      int         `json:"embed_dim"`
	ImageSize     int         `json:"image_size"`
	ContextLength int         `json:"context_length"`
	Backend       BackendInfo `json:"backend"`
	WeightsFormat string      `json:"weights_format,omitempty"`
	TensorCount   int         `json:"tensor_count"`
	LogitScale    float64     `json:"logit_scale"`
}
