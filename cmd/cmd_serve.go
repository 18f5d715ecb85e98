// cmd_serve.go - Server-Start und Modell-Laden
// Hauptfunktionen: RunServer, loadModel, versionHandler
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/api"
	// ONNX-Backend registriert sich per init()
	_ "github.com/PeterGuy326/react-vision/backend/onnx"
	"github.com/PeterGuy326/react-vision/cache"
	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/openclip"
	"github.com/PeterGuy326/react-vision/server"
	"github.com/PeterGuy326/react-vision/version"
)

// RunServer - Startet clipserve, das Modell laedt im Hintergrund
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln, func(ctx context.Context) (server.Model, error) {
		m, err := loadModel(ctx, envconfig.ModelDir(), true)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// loadModel - Laedt das Modell mit den Einstellungen aus der Umgebung
func loadModel(ctx context.Context, dir string, withCache bool) (*openclip.Model, error) {
	opts := []openclip.Option{
		openclip.WithBackend(envconfig.Backend()),
		openclip.WithDevice(envconfig.Device()),
		openclip.WithThreads(int(envconfig.NumThreads())),
		openclip.WithLibrary(envconfig.OrtLibrary()),
		openclip.WithLogitScale(envconfig.LogitScale()),
	}

	if withCache {
		c, err := cache.New(ctx, cache.Config{
			Size:      int(envconfig.CacheSize()),
			RedisURL:  envconfig.RedisURL(),
			KeyPrefix: envconfig.RedisPrefix(),
		})
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		if c != nil {
			opts = append(opts, openclip.WithCache(c))
		}
	}

	return openclip.Load(ctx, dir, opts...)
}

// versionHandler - Zeigt Client- und Server-Version an
func versionHandler(cmd *cobra.Command, _ []string) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		fmt.Println("Warning: could not connect to a running clipserve instance")
	}

	if serverVersion != "" {
		fmt.Printf("clipserve version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Printf("Warning: client version is %s\n", version.Version)
	}
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the embedding server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
