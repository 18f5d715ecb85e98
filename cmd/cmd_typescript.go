// cmd_typescript.go - TypeScript-Interfaces fuer das Web-Frontend
// Hauptfunktionen: TypescriptHandler, typescriptTypes
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tkrajina/typescriptify-golang-structs/typescriptify"

	"github.com/PeterGuy326/react-vision/api"
)

// typescriptTypes - JSON-Typen der HTTP-API ohne Multipart-Requests
func typescriptTypes() []any {
	return []any{
		api.LabelResult{},
		api.AnalyzeResponse{},
		api.SearchResult{},
		api.SearchResponse{},
		api.EmbedTextRequest{},
		api.EmbedImageResponse{},
		api.HealthResponse{},
		api.VersionResponse{},
		api.BackendInfo{},
		api.ModelResponse{},
		api.ErrorResponse{},
	}
}

// convertTypescript - Erzeugt den TypeScript-Quelltext
func convertTypescript() (string, error) {
	converter := typescriptify.New()
	converter.CreateInterface = true
	converter.BackupDir = ""
	for _, t := range typescriptTypes() {
		converter.Add(t)
	}
	return converter.Convert(nil)
}

// TypescriptHandler - Schreibt die Interfaces auf stdout oder in eine Datei
func TypescriptHandler(cmd *cobra.Command, _ []string) error {
	ts, err := convertTypescript()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		fmt.Fprint(cmd.OutOrStdout(), ts)
		return nil
	}

	header := "/* Generated by clipserve typescript. Do not edit. */\n"
	return os.WriteFile(path, []byte(header+ts), 0o644)
}

// newTypescriptCmd - Erstellt den typescript Command
func newTypescriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "typescript",
		Short:  "Emit TypeScript interfaces for the HTTP API",
		Args:   cobra.ExactArgs(0),
		Hidden: true,
		RunE:   TypescriptHandler,
	}

	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")

	return cmd
}
