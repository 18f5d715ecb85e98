// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/logutil"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// loadEnv - Laedt .env und CLIP_CONFIG vor jedem Command
func loadEnv(cmd *cobra.Command, _ []string) error {
	if err := envconfig.Load(); err != nil {
		return err
	}
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	return nil
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:               "clipserve",
		Short:             "OpenCLIP image and text embedding server",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadEnv,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	serveCmd := newServeCmd()
	predictCmd := newPredictCmd()
	infoCmd := newInfoCmd()
	benchCmd := newBenchCmd()
	analyzeCmd := newAnalyzeCmd()
	searchCmd := newSearchCmd()
	typescriptCmd := newTypescriptCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	local := []envconfig.EnvVar{
		envVars["CLIP_MODEL_DIR"],
		envVars["CLIP_BACKEND"],
		envVars["CLIP_DEVICE"],
		envVars["CLIP_ORT_LIBRARY"],
		envVars["CLIP_NUM_THREADS"],
		envVars["CLIP_LOGIT_SCALE"],
	}

	for _, cmd := range []*cobra.Command{
		serveCmd,
		predictCmd,
		infoCmd,
		benchCmd,
		analyzeCmd,
		searchCmd,
	} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["CLIP_DEBUG"],
				envVars["CLIP_HOST"],
				envVars["CLIP_ORIGINS"],
				envVars["CLIP_MODEL_DIR"],
				envVars["CLIP_LOAD_TIMEOUT"],
				envVars["CLIP_BACKEND"],
				envVars["CLIP_DEVICE"],
				envVars["CLIP_ORT_LIBRARY"],
				envVars["CLIP_NUM_THREADS"],
				envVars["CLIP_LOGIT_SCALE"],
				envVars["CLIP_MAX_UPLOAD"],
				envVars["CLIP_MAX_IMAGES"],
				envVars["CLIP_NUM_PARALLEL"],
				envVars["CLIP_CACHE_SIZE"],
				envVars["CLIP_REDIS_URL"],
				envVars["CLIP_REDIS_PREFIX"],
				envVars["CLIP_CONFIG"],
			})
		case analyzeCmd, searchCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["CLIP_HOST"]})
		default:
			appendEnvDocs(cmd, local)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		predictCmd,
		analyzeCmd,
		searchCmd,
		infoCmd,
		benchCmd,
		typescriptCmd,
	)

	return rootCmd
}
