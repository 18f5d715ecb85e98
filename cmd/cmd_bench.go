// cmd_bench.go - Encoder-Benchmark Command
// Hauptfunktionen: BenchHandler, parseBatchSizes
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/benchmark"
	"github.com/PeterGuy326/react-vision/envconfig"
)

// BenchHandler - Misst Latenz und Durchsatz der Encoder
func BenchHandler(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("model")
	if dir == "" {
		dir = envconfig.ModelDir()
	}

	cfg := benchmark.DefaultConfig()
	if n, _ := cmd.Flags().GetInt("iterations"); n > 0 {
		cfg.Iterations = n
	}
	if n, _ := cmd.Flags().GetInt("warmup"); n >= 0 {
		cfg.WarmupRuns = n
	}
	if s, _ := cmd.Flags().GetString("batch-sizes"); s != "" {
		sizes, err := parseBatchSizes(s)
		if err != nil {
			return err
		}
		cfg.BatchSizes = sizes
	}
	if sizes, _ := cmd.Flags().GetStringSlice("image-sizes"); len(sizes) > 0 {
		for _, size := range sizes {
			if _, _, err := benchmark.ParseImageSize(size); err != nil {
				return err
			}
		}
		cfg.ImageSizes = sizes
	}
	cfg.Text, _ = cmd.Flags().GetBool("text")

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "markdown", "json":
	default:
		return fmt.Errorf("unknown format %q (table, markdown, json)", format)
	}

	m, err := loadModel(cmd.Context(), dir, false)
	if err != nil {
		return err
	}
	defer m.Close()

	results, err := benchmark.Run(cmd.Context(), m, cfg)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	report := benchmark.NewReport(results, cfg)
	switch format {
	case "markdown":
		report.WriteMarkdown(out)
	case "json":
		return report.WriteJSON(out)
	default:
		report.WriteTable(out)
	}
	return nil
}

// parseBatchSizes - Parst "1,4,8" in eine Liste positiver Zahlen
func parseBatchSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid batch size %q", part)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no batch sizes in %q", s)
	}
	return sizes, nil
}

// newBenchCmd - Erstellt den bench Command
func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the image and text encoders",
		Args:  cobra.ExactArgs(0),
		RunE:  BenchHandler,
	}

	cmd.Flags().String("model", "", "Model directory (default CLIP_MODEL_DIR)")
	cmd.Flags().Int("iterations", 0, "Measured iterations per run")
	cmd.Flags().Int("warmup", -1, "Warmup runs per measurement")
	cmd.Flags().String("batch-sizes", "", "Comma separated batch sizes, e.g. 1,4,8")
	cmd.Flags().StringSlice("image-sizes", nil, "Source image sizes, e.g. 640x480")
	cmd.Flags().Bool("text", true, "Also benchmark the text encoder")
	cmd.Flags().String("format", "table", "Output format: table, markdown, json")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file")

	return cmd
}
