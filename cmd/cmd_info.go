// cmd_info.go - Modellverzeichnis inspizieren ohne Backend
// Hauptfunktionen: InfoHandler, writeConfig, writeTensors
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/openclip"
)

// InfoHandler - Zeigt Konfiguration und Gewichts-Inventar eines Modells
func InfoHandler(cmd *cobra.Command, args []string) error {
	dir := envconfig.ModelDir()
	if len(args) > 0 {
		dir = args[0]
	}

	cfg, err := openclip.LoadConfig(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeConfig(out, dir, cfg)

	w, err := openclip.LoadWeights(dir)
	if err != nil {
		fmt.Fprintf(out, "\n  weights     unavailable: %v\n", err)
		return nil
	}

	if err := w.Validate(cfg); err != nil {
		fmt.Fprintf(out, "\n  warning     %v\n", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-12s%s\n", "weights", w.Path)
	fmt.Fprintf(out, "  %-12s%s\n", "format", w.Format)
	fmt.Fprintf(out, "  %-12s%d\n", "tensors", len(w.Tensors))
	fmt.Fprintf(out, "  %-12s%s\n", "parameters", humanCount(w.Params()))
	if w.LogitScale != nil {
		fmt.Fprintf(out, "  %-12s%.4f\n", "logit_scale", *w.LogitScale)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		fmt.Fprintln(out)
		writeTensors(out, w)
	}

	return nil
}

func writeConfig(out io.Writer, dir string, cfg *openclip.Config) {
	rows := [][]string{
		{"directory", dir},
		{"arch", cfg.Arch()},
		{"embed_dim", strconv.Itoa(cfg.ModelCfg.EmbedDim)},
		{"image_size", strconv.Itoa(cfg.ModelCfg.VisionCfg.ImageSize)},
		{"context", strconv.Itoa(cfg.ModelCfg.TextCfg.ContextLength)},
		{"vocab_size", strconv.Itoa(cfg.ModelCfg.TextCfg.VocabSize)},
		{"interp", cfg.PreprocessCfg.Interpolation},
		{"resize", cfg.PreprocessCfg.ResizeMode},
		{"mean", floats(cfg.PreprocessCfg.Mean)},
		{"std", floats(cfg.PreprocessCfg.Std)},
	}

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(out, "  %-12s%s\n", row[0], row[1])
	}
}

// writeTensors - Tensor-Tabelle sortiert nach Namen
func writeTensors(out io.Writer, w *openclip.Weights) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"TENSOR", "DTYPE", "SHAPE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	for _, name := range w.Names() {
		t := w.Tensors[name]
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = strconv.FormatInt(d, 10)
		}
		table.Append([]string{name, t.DType, "[" + strings.Join(dims, " ") + "]"})
	}
	table.Render()
}

func floats(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', 4, 32)
	}
	return strings.Join(parts, " ")
}

// humanCount - 151277313 -> 151.28M
func humanCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.2fK", float64(n)/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// newInfoCmd - Erstellt den info Command
func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [MODEL_DIR]",
		Short: "Show model config and weights inventory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  InfoHandler,
	}

	cmd.Flags().BoolP("verbose", "v", false, "List all tensors")

	return cmd
}
