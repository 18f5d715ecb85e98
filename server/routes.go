// Package server - Haupt-Router und Server-Setup fuer clipserve
// Beinhaltet: Server-Struct, Model-Interface, Router-Registrierung
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/openclip"
)

var mode string = gin.ReleaseMode

// Model ist das vom Server genutzte Encoder-Interface. *openclip.Model erfuellt es.
type Model interface {
	EncodeImage(ctx context.Context, data []byte) ([]float32, error)
	EncodeText(ctx context.Context, texts []string) ([][]float32, error)
	Predict(ctx context.Context, image []byte, texts []string) (*openclip.Prediction, error)
	LogitScale() float64
	Info() openclip.Info
	Close() error
}

var _ Model = (*openclip.Model)(nil)

// Limits begrenzt Requests
type Limits struct {
	// MaxUpload ist die maximale Body-Groesse in Bytes (0 = unbegrenzt)
	MaxUpload int64

	// MaxImages ist die maximale Bildanzahl pro Suche (0 = unbegrenzt)
	MaxImages int

	// NumParallel ist die Anzahl parallel kodierter Bilder pro Suche
	NumParallel int
}

// LimitsFromEnv liest die Limits aus CLIP_MAX_UPLOAD, CLIP_MAX_IMAGES und CLIP_NUM_PARALLEL
func LimitsFromEnv() Limits {
	return Limits{
		MaxUpload:   int64(envconfig.MaxUpload()),
		MaxImages:   int(envconfig.MaxImages()),
		NumParallel: max(int(envconfig.NumParallel()), 1),
	}
}

// Server haelt das Modell und die Request-Limits
type Server struct {
	addr   net.Addr
	model  *modelSlot
	limits Limits
}

// NewServer erstellt einen Server ohne geladenes Modell
func NewServer(addr net.Addr, limits Limits) *Server {
	if limits.NumParallel < 1 {
		limits.NumParallel = 1
	}
	return &Server{
		addr:   addr,
		model:  newModelSlot(),
		limits: limits,
	}
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.ReleaseMode
	}

	gin.SetMode(mode)
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() (http.Handler, error) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
		requestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	if envconfig.AllowAllOrigins() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = envconfig.AllowedOrigins()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		accessLogMiddleware(),
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
		bodyLimitMiddleware(s.limits.MaxUpload),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "clipserve is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "clipserve is running") })
	r.HEAD("/api/version", s.VersionHandler)
	r.GET("/api/version", s.VersionHandler)
	r.GET("/api/health", s.HealthHandler)
	r.GET("/api/model", s.ModelHandler)

	// Inference
	r.POST("/api/analyze", s.AnalyzeHandler)
	r.POST("/api/search_images", s.SearchImagesHandler)
	r.POST("/api/embed/text", s.EmbedTextHandler)
	r.POST("/api/embed/image", s.EmbedImageHandler)

	return r, nil
}
