// config_features.go - Inferenz-, Limit- und Cache-Konfiguration
//
// Dieses Modul enthaelt:
// - Backend- und Device-Auswahl fuer den Forward-Pass
// - Request-Limits (Upload-Groesse, Bildanzahl)
// - Parallelitaets-Einstellungen
// - Cache-Einstellungen fuer Text-Embeddings
package envconfig

// =============================================================================
// Inferenz
// =============================================================================

var (
	// Backend waehlt die Runtime fuer den Forward-Pass (Default: onnx)
	Backend = StringWithDefault("CLIP_BACKEND", "onnx")

	// Device ist das Compute-Device ("cpu" oder "cuda")
	Device = StringWithDefault("CLIP_DEVICE", "cpu")

	// OrtLibrary ist der Pfad zur onnxruntime Shared Library
	OrtLibrary = String("CLIP_ORT_LIBRARY")

	// NumThreads setzt die Intra-Op Threads der Runtime (0 = auto)
	NumThreads = Uint("CLIP_NUM_THREADS", 0)

	// LogitScale ist "fixed" (100), "learned" (aus Gewichten) oder eine Zahl
	LogitScale = StringWithDefault("CLIP_LOGIT_SCALE", "fixed")
)

// =============================================================================
// Request-Limits und Parallelitaet
// =============================================================================

var (
	// MaxUpload ist die maximale Request-Groesse in Bytes (Default: 32 MiB)
	MaxUpload = Uint64("CLIP_MAX_UPLOAD", 32<<20)

	// MaxImages ist die maximale Anzahl Bilder pro Suche
	MaxImages = Uint("CLIP_MAX_IMAGES", 64)

	// NumParallel ist die Anzahl parallel kodierter Bilder pro Suche
	NumParallel = Uint("CLIP_NUM_PARALLEL", 4)
)

// =============================================================================
// Cache
// =============================================================================

var (
	// CacheSize ist die Anzahl gecachter Text-Embeddings (0 = aus)
	CacheSize = Uint("CLIP_CACHE_SIZE", 1024)

	// RedisURL aktiviert einen geteilten Redis-Cache (z.B. redis://localhost:6379/0)
	RedisURL = String("CLIP_REDIS_URL")

	// RedisPrefix ist das Schluessel-Praefix im geteilten Cache
	RedisPrefix = StringWithDefault("CLIP_REDIS_PREFIX", "clip:text:")
)
