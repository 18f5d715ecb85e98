// MODUL: report
// ZWECK: Report-Ausgabe fuer Benchmark-Ergebnisse (Tabelle, Markdown, JSON)
// INPUT: Result Slices, Config
// OUTPUT: Formatierte Reports
// NEBENEFFEKTE: keine (schreibt nur auf io.Writer)
// ABHAENGIGKEITEN: olekukonko/tablewriter, encoding/json
// HINWEISE: Markdown nutzt die Pipe-Tabellen von tablewriter

package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Report enthaelt alle Benchmark-Ergebnisse mit Metadaten.
type Report struct {
	Timestamp time.Time  `json:"timestamp"`
	System    SystemInfo `json:"system"`
	Config    Config     `json:"config"`
	Results   []Result   `json:"results"`
}

// SystemInfo enthaelt Systeminformationen zum Benchmark.
type SystemInfo struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	CPUCores int    `json:"cpu_cores"`
}

// NewReport erstellt einen Report aus Benchmark-Ergebnissen.
func NewReport(results []Result, cfg Config) *Report {
	return &Report{
		Timestamp: time.Now(),
		System: SystemInfo{
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			CPUCores: runtime.NumCPU(),
		},
		Config:  cfg,
		Results: results,
	}
}

// Best gibt das Ergebnis mit dem hoechsten Durchsatz einer Messart zurueck
func (r *Report) Best(kind string) (Result, bool) {
	var best Result
	var found bool
	for _, res := range r.Results {
		if res.Kind == kind && (!found || res.Throughput > best.Throughput) {
			best, found = res, true
		}
	}
	return best, found
}

// WriteJSON schreibt den Report als JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteTable schreibt die Ergebnisse als Konsolen-Tabelle.
func (r *Report) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	r.fill(table)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.Render()

	for _, kind := range []string{KindImage, KindText} {
		if best, ok := r.Best(kind); ok {
			fmt.Fprintf(w, "\nbest %s throughput: %.1f/s (%s, batch %d)", kind, best.Throughput, best.InputSize, best.BatchSize)
		}
	}
	fmt.Fprintln(w)
}

// WriteMarkdown schreibt den Report als Markdown.
func (r *Report) WriteMarkdown(w io.Writer) {
	fmt.Fprintf(w, "# CLIP Encoder Benchmark\n\n")
	fmt.Fprintf(w, "- **Date:** %s\n", r.Timestamp.Format(time.DateTime))
	fmt.Fprintf(w, "- **System:** %s/%s, %d cores\n\n", r.System.OS, r.System.Arch, r.System.CPUCores)

	table := tablewriter.NewWriter(w)
	r.fill(table)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.Render()
}

func (r *Report) fill(table *tablewriter.Table) {
	table.SetHeader([]string{"KIND", "ARCH", "BACKEND", "INPUT", "BATCH", "AVG", "P95", "THROUGHPUT", "ALLOC/ITER"})
	for _, res := range r.Results {
		table.Append([]string{
			res.Kind,
			res.Arch,
			res.Backend + "/" + res.Device,
			res.InputSize,
			strconv.Itoa(res.BatchSize),
			formatDuration(res.AvgLatency),
			formatDuration(res.P95Latency),
			fmt.Sprintf("%.1f/s", res.Throughput),
			formatBytes(res.MemoryUsed),
		})
	}
}

// formatDuration formatiert eine Dauer kompakt
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	}
}

// formatBytes formatiert Bytes menschenlesbar
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
