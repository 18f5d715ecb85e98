// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/logutil"
	"github.com/PeterGuy326/react-vision/version"
)

// shutdownTimeout begrenzt das Abarbeiten laufender Requests beim Beenden
const shutdownTimeout = 10 * time.Second

// Load laedt das Modell ueber fn. Bis zum Ende antworten Modell-Endpunkte mit 503.
func (s *Server) Load(ctx context.Context, fn LoadFunc, timeout time.Duration) {
	s.model.load(ctx, fn, timeout)
}

// SetModel setzt ein bereits geladenes Modell
func (s *Server) SetModel(m Model) {
	s.model.set(m)
}

// WaitModel blockiert bis das Laden abgeschlossen ist und gibt den Ladefehler zurueck
func (s *Server) WaitModel(ctx context.Context) error {
	if err := s.model.wait(ctx); err != nil {
		return err
	}
	_, err := s.model.status()
	return err
}

// Close gibt das Modell frei
func (s *Server) Close() error {
	return s.model.close()
}

// Serve startet den HTTP-Server und laedt das Modell im Hintergrund
func Serve(ln net.Listener, load LoadFunc) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	if envconfig.LogLevel() <= slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	}

	s := NewServer(ln.Addr(), LimitsFromEnv())
	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	ctx, done := context.WithCancel(context.Background())
	defer done()

	go s.Load(ctx, load, envconfig.LoadTimeout())

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 30 * time.Second,
	}

	// listen for a ctrl+c and stop the model
	stopped := make(chan struct{})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer close(stopped)
		<-signals
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srvr.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "error", err)
		}
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the shutdown
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped

	if err := s.Close(); err != nil {
		slog.Warn("close model", "error", err)
	}
	return nil
}
