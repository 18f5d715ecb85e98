// routes_embed.go - Handler fuer die Embedding-Endpunkte
// Enthaelt: EmbedTextHandler (JSON), EmbedImageHandler (multipart)

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/openclip"
)

// EmbedTextHandler verarbeitet POST /api/embed/text
func (s *Server) EmbedTextHandler(c *gin.Context) {
	m, err := s.model.get()
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req api.EmbedTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", errInvalidField, err))
		return
	}
	if len(req.Texts) == 0 {
		abortWithError(c, openclip.ErrEmptyInput)
		return
	}

	vecs, err := m.EncodeText(c.Request.Context(), req.Texts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.EmbedTextResponse{
		Embeddings: vecs,
		Dimensions: len(vecs[0]),
	})
}

// EmbedImageHandler verarbeitet POST /api/embed/image
func (s *Server) EmbedImageHandler(c *gin.Context) {
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

	vec, err := m.EncodeImage(c.Request.Context(), data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.EmbedImageResponse{
		Embedding:  vec,
		Dimensions: len(vec),
	})
}
