// cmd_predict.go - Lokale Zero-Shot-Klassifikation ohne Server
// Hauptfunktionen: PredictHandler, writeLabels
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/benchmark"
	"github.com/PeterGuy326/react-vision/envconfig"
	"github.com/PeterGuy326/react-vision/match"
)

// randomImageSize entspricht der Standard-Eingabegroesse von ViT-B-32
const randomImageSize = 224

// PredictHandler - Vergleicht ein Bild mit den angegebenen Labels
func PredictHandler(cmd *cobra.Command, args []string) error {
	random, _ := cmd.Flags().GetBool("random-image")
	dir, _ := cmd.Flags().GetString("model")
	if dir == "" {
		dir = envconfig.ModelDir()
	}

	var (
		data   []byte
		labels []string
		err    error
	)

	if random {
		seed, _ := cmd.Flags().GetInt64("seed")
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		data = benchmark.GenerateNoiseImage(randomImageSize, randomImageSize, seed)
		labels = args
	} else {
		if len(args) < 2 {
			return fmt.Errorf("requires an image and at least one label")
		}
		data, err = os.ReadFile(args[0])
		labels = args[1:]
	}
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return fmt.Errorf("requires at least one label")
	}

	m, err := loadModel(cmd.Context(), dir, false)
	if err != nil {
		return err
	}
	defer m.Close()

	pred, err := m.Predict(cmd.Context(), data, labels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ranked := pred.Ranked()
	writeLabels(out, ranked)

	best := ranked[0]
	fmt.Fprintf(out, "\nBest match: %q (%.2f%%)\n", best.Text, best.Probability*100)
	return nil
}

// writeLabels - Gibt die Labels als Tabelle aus
func writeLabels(w io.Writer, labels []match.Label) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"LABEL", "SIMILARITY", "PROBABILITY"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, l := range labels {
		table.Append([]string{
			l.Text,
			fmt.Sprintf("%.4f", l.Similarity),
			fmt.Sprintf("%.2f%%", l.Probability*100),
		})
	}
	table.Render()
}

// newPredictCmd - Erstellt den predict Command
func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict IMAGE LABEL [LABEL...]",
		Short: "Classify an image against text labels with a local model",
		Args:  cobra.MinimumNArgs(1),
		RunE:  PredictHandler,
	}

	cmd.Flags().String("model", "", "Model directory (default CLIP_MODEL_DIR)")
	cmd.Flags().Bool("random-image", false, "Use a generated 224x224 noise image, all arguments are labels")
	cmd.Flags().Int64("seed", 0, "Seed for --random-image")

	return cmd
}
