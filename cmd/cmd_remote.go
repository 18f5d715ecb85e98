// cmd_remote.go - analyze und search gegen einen laufenden Server
// Hauptfunktionen: AnalyzeHandler, SearchHandler, checkServerHeartbeat
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/api"
	"github.com/PeterGuy326/react-vision/match"
)

// checkServerHeartbeat - Prueft ob der Server erreichbar ist und wartet optional auf das Modell
func checkServerHeartbeat(cmd *cobra.Command) (*api.Client, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}

	wait, _ := cmd.Flags().GetDuration("wait")
	if wait <= 0 {
		if _, err := client.Health(cmd.Context()); err != nil {
			return nil, fmt.Errorf("could not connect to clipserve server, run 'clipserve serve' to start it: %w", err)
		}
		return client, nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()
	if err := client.WaitReady(ctx, wait); err != nil {
		if errors.Is(err, api.ErrModelFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("server not ready after %s: %w", wait, err)
	}
	return client, nil
}

func readImageFile(path string) (api.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.ImageFile{}, err
	}
	return api.ImageFile{Name: filepath.Base(path), Data: data}, nil
}

// AnalyzeHandler - Sendet ein Bild mit Labels an /api/analyze
func AnalyzeHandler(cmd *cobra.Command, args []string) error {
	img, err := readImageFile(args[0])
	if err != nil {
		return err
	}

	client, err := checkServerHeartbeat(cmd)
	if err != nil {
		return err
	}

	resp, err := client.Analyze(cmd.Context(), &api.AnalyzeRequest{Image: img, Texts: args[1:]})
	if err != nil {
		return err
	}

	labels := make([]match.Label, len(resp.Results))
	for i, r := range resp.Results {
		labels[i] = match.Label{Text: r.Text, Similarity: r.Similarity, Probability: r.Probability}
	}
	out := cmd.OutOrStdout()
	writeLabels(out, labels)

	if best, ok := resp.Best(); ok {
		fmt.Fprintf(out, "\nBest match: %q (%.2f%%)\n", best.Text, best.Probability*100)
	}
	return nil
}

// SearchHandler - Sortiert Bilder nach einer Textanfrage ueber /api/search_images
func SearchHandler(cmd *cobra.Command, args []string) error {
	images := make([]api.ImageFile, 0, len(args)-1)
	for _, path := range args[1:] {
		img, err := readImageFile(path)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	client, err := checkServerHeartbeat(cmd)
	if err != nil {
		return err
	}

	topK, _ := cmd.Flags().GetInt("top-k")
	noData := false
	resp, err := client.SearchImages(cmd.Context(), &api.SearchRequest{
		Query:            args[0],
		Images:           images,
		TopK:             topK,
		IncludeImageData: &noData,
	})
	if err != nil {
		return err
	}

	writeSearchResults(cmd.OutOrStdout(), resp)
	return nil
}

func writeSearchResults(w io.Writer, resp *api.SearchResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RANK", "IMAGE", "SIMILARITY", "RELEVANCE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for i, r := range resp.Results {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.ImageName,
			fmt.Sprintf("%.4f", r.Similarity),
			fmt.Sprintf("%.2f%%", r.Relevance*100),
		})
	}
	table.Render()

	if skipped := resp.TotalImages - resp.ProcessedImages; skipped > 0 {
		fmt.Fprintf(w, "\n%d of %d images could not be decoded\n", skipped, resp.TotalImages)
	}
}

// newAnalyzeCmd - Erstellt den analyze Command
func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze IMAGE LABEL [LABEL...]",
		Short: "Classify an image against text labels on a running server",
		Args:  cobra.MinimumNArgs(2),
		RunE:  AnalyzeHandler,
	}
	cmd.Flags().Duration("wait", 0, "Wait up to this long for the model to load")
	return cmd
}

// newSearchCmd - Erstellt den search Command
func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY IMAGE [IMAGE...]",
		Short: "Rank images by similarity to a text query on a running server",
		Args:  cobra.MinimumNArgs(2),
		RunE:  SearchHandler,
	}
	cmd.Flags().Int("top-k", 0, "Return only the best K images (0 = all)")
	cmd.Flags().Duration("wait", 0, "Wait up to this long for the model to load")
	return cmd
}
