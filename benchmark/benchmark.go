// MODUL: benchmark
// ZWECK: Benchmark fuer Bild- und Text-Encoder mit Latenz-, Durchsatz- und Speichermessung
// INPUT: Encoder (z.B. *openclip.Model), Config
// OUTPUT: Result mit Metriken pro Eingabegroesse und Batch
// NEBENEFFEKTE: CPU/GPU-Last waehrend Benchmark, Speicherallokation
// ABHAENGIGKEITEN: openclip (Info), runtime (Speichermessung)
// HINWEISE: Warmup-Laeufe sind wichtig fuer stabile Messungen

package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/PeterGuy326/react-vision/openclip"
)

// ============================================================================
// Datenstrukturen
// ============================================================================

// Encoder ist das gemessene Modell. *openclip.Model erfuellt es.
type Encoder interface {
	EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error)
	EncodeText(ctx context.Context, texts []string) ([][]float32, error)
	Info() openclip.Info
}

// Messarten
const (
	KindImage = "image"
	KindText  = "text"
)

// Result enthaelt das Ergebnis eines einzelnen Benchmark-Laufs.
type Result struct {
	Kind       string        `json:"kind"`
	Arch       string        `json:"arch"`
	Backend    string        `json:"backend"`
	Device     string        `json:"device"`
	InputSize  string        `json:"input_size"` // "640x480" oder "77 tokens"
	BatchSize  int           `json:"batch_size"`
	Iterations int           `json:"iterations"`
	TotalTime  time.Duration `json:"total_time"`
	AvgLatency time.Duration `json:"avg_latency"` // pro Eingabe
	MinLatency time.Duration `json:"min_latency"`
	MaxLatency time.Duration `json:"max_latency"`
	P95Latency time.Duration `json:"p95_latency"`
	Throughput float64       `json:"throughput"` // Eingaben pro Sekunde
	MemoryUsed uint64        `json:"memory_used"`
	EmbedDim   int           `json:"embed_dim"`
}

// Config definiert die Parameter fuer einen Benchmark-Lauf.
type Config struct {
	Iterations int      `json:"iterations"`  // Anzahl Messungen (ohne Warmup)
	WarmupRuns int      `json:"warmup_runs"` // Anzahl Warmup-Laeufe (nicht gemessen)
	BatchSizes []int    `json:"batch_sizes"`
	ImageSizes []string `json:"image_sizes"` // Quellbildgroessen z.B. "640x480"
	Text       bool     `json:"text"`        // Text-Encoder zusaetzlich messen
}

// DefaultConfig gibt eine Standard-Konfiguration zurueck.
func DefaultConfig() Config {
	return Config{
		Iterations: 20,
		WarmupRuns: 3,
		BatchSizes: []int{1, 4, 8},
		ImageSizes: []string{"224x224", "640x480"},
		Text:       true,
	}
}

// ============================================================================
// Haupt-Benchmark-Funktionen
// ============================================================================

// Run misst alle Kombinationen aus ImageSizes und BatchSizes, optional auch Text.
// Der erste Encoder-Fehler bricht den Lauf ab.
func Run(ctx context.Context, enc Encoder, cfg Config) ([]Result, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be > 0")
	}

	info := enc.Info()
	var results []Result

	for _, size := range cfg.ImageSizes {
		width, height, err := ParseImageSize(size)
		if err != nil {
			return nil, err
		}

		for _, batchSize := range cfg.BatchSizes {
			batch := GenerateTestBatch(width, height, batchSize)
			run := func() error {
				_, err := enc.EncodeImages(ctx, batch)
				return err
			}

			r, err := measure(ctx, run, batchSize, cfg)
			if err != nil {
				return nil, fmt.Errorf("image %s batch %d: %w", size, batchSize, err)
			}
			r.Kind, r.InputSize = KindImage, fmt.Sprintf("%dx%d", width, height)
			results = append(results, withInfo(r, info))
		}
	}

	if cfg.Text {
		for _, batchSize := range cfg.BatchSizes {
			texts := make([]string, batchSize)
			iter := 0
			run := func() error {
				// Jede Iteration neue Texte, damit kein Cache trifft
				for i := range texts {
					texts[i] = fmt.Sprintf("a photo of object %d/%d in scene %d", i, batchSize, iter)
				}
				iter++
				_, err := enc.EncodeText(ctx, texts)
				return err
			}

			r, err := measure(ctx, run, batchSize, cfg)
			if err != nil {
				return nil, fmt.Errorf("text batch %d: %w", batchSize, err)
			}
			r.Kind, r.InputSize = KindText, fmt.Sprintf("%d tokens", info.ContextLength)
			results = append(results, withInfo(r, info))
		}
	}

	return results, nil
}

// ============================================================================
// Interne Benchmark-Logik
// ============================================================================

// measure fuehrt Warmup und Messung fuer eine Konfiguration aus
func measure(ctx context.Context, run func() error, batchSize int, cfg Config) (Result, error) {
	for i := 0; i < cfg.WarmupRuns; i++ {
		if err := run(); err != nil {
			return Result{}, err
		}
	}

	// GC erzwingen vor Messung
	runtime.GC()
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	latencies := make([]time.Duration, 0, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		if err := run(); err != nil {
			return Result{}, err
		}
		latencies = append(latencies, time.Since(start))
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	stats := calculateStats(latencies)
	per := time.Duration(batchSize)
	r := Result{
		BatchSize:  batchSize,
		Iterations: cfg.Iterations,
		TotalTime:  stats.total,
		AvgLatency: stats.avg / per,
		MinLatency: stats.min / per,
		MaxLatency: stats.max / per,
		P95Latency: stats.p95 / per,
	}
	if stats.total > 0 {
		r.Throughput = float64(batchSize*cfg.Iterations) / stats.total.Seconds()
	}
	if memAfter.TotalAlloc > memBefore.TotalAlloc {
		r.MemoryUsed = (memAfter.TotalAlloc - memBefore.TotalAlloc) / uint64(cfg.Iterations)
	}
	return r, nil
}

func withInfo(r Result, info openclip.Info) Result {
	r.Arch = info.Arch
	r.Backend = info.Backend.Name
	r.Device = info.Backend.Device
	r.EmbedDim = info.EmbedDim
	return r
}

// ============================================================================
// Statistik-Hilfsfunktionen
// ============================================================================

// latencyStats enthaelt berechnete Latenz-Statistiken.
type latencyStats struct {
	total time.Duration
	avg   time.Duration
	min   time.Duration
	max   time.Duration
	p95   time.Duration
}

// calculateStats berechnet Statistiken aus Latenz-Messungen.
func calculateStats(latencies []time.Duration) latencyStats {
	if len(latencies) == 0 {
		return latencyStats{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range latencies {
		total += d
	}

	p95Idx := min(int(float64(len(sorted))*0.95), len(sorted)-1)

	return latencyStats{
		total: total,
		avg:   total / time.Duration(len(latencies)),
		min:   sorted[0],
		max:   sorted[len(sorted)-1],
		p95:   sorted[p95Idx],
	}
}

// ParseImageSize parst einen String wie "224x224" zu width, height.
func ParseImageSize(size string) (int, int, error) {
	var width, height int
	if _, err := fmt.Sscanf(size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid image size %q", size)
	}
	return width, height, nil
}
