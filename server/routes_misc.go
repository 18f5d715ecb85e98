// Package server - Status-Handler
// Beinhaltet: Version, Health und Modell-Info
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/openclip"
	"github.com/PeterGuy326/react-vision/version"
)

// VersionHandler gibt die Server-Version zurueck
func (s *Server) VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version})
}

// HealthHandler antwortet immer mit 200, auch waehrend das Modell laedt
func (s *Server) HealthHandler(c *gin.Context) {
	state, err := s.model.status()

	resp := api.HealthResponse{
		Status:      "ok",
		ModelLoaded: state == api.ModelStateReady,
		ModelState:  state,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// ModelHandler gibt Metadaten des geladenen Modells zurueck
func (s *Server) ModelHandler(c *gin.Context) {
	m, err := s.model.get()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, modelResponse(m.Info()))
}

func modelResponse(info openclip.Info) api.ModelResponse {
	return api.ModelResponse{
		Name:          info.Name,
		Arch:          info.Arch,
		EmbedDim:      info.EmbedDim,
		ImageSize:     info.ImageSize,
		ContextLength: info.ContextLength,
		Backend: api.BackendInfo{
			Name:         info.Backend.Name,
			Device:       info.Backend.Device,
			ImageInput:   info.Backend.ImageInput,
			TextInput:    info.Backend.TextInput,
			DynamicBatch: info.Backend.DynamicBatch,
		},
		WeightsFormat: info.WeightsFormat,
		TensorCount:   info.TensorCount,
		LogitScale:    info.LogitScale,
	}
}
