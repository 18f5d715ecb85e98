// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String/StringWithDefault: String-Getter
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// StringWithDefault gibt eine Funktion zurueck, die einen String mit Default liest
func StringWithDefault(k, defaultValue string) func() string {
	return func() string {
		if s := Var(k); s != "" {
			return s
		}
		return defaultValue
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"CLIP_DEBUG":        {"CLIP_DEBUG", LogLevel(), "Show additional debug information (e.g. CLIP_DEBUG=1)"},
		"CLIP_HOST":         {"CLIP_HOST", Host(), "IP Address for the clipserve server (default 127.0.0.1:8000)"},
		"CLIP_ORIGINS":      {"CLIP_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins (* allows all)"},
		"CLIP_MODEL_DIR":    {"CLIP_MODEL_DIR", ModelDir(), "The path to the OpenCLIP model directory (default ./model)"},
		"CLIP_LOAD_TIMEOUT": {"CLIP_LOAD_TIMEOUT", LoadTimeout(), "How long to allow the model load before giving up (default \"5m\")"},
		"CLIP_BACKEND":      {"CLIP_BACKEND", Backend(), "Inference backend (default onnx)"},
		"CLIP_DEVICE":       {"CLIP_DEVICE", Device(), "Compute device: cpu or cuda (default cpu)"},
		"CLIP_ORT_LIBRARY":  {"CLIP_ORT_LIBRARY", OrtLibrary(), "Path to the onnxruntime shared library"},
		"CLIP_NUM_THREADS":  {"CLIP_NUM_THREADS", NumThreads(), "Intra-op threads for the runtime (0 = auto)"},
		"CLIP_LOGIT_SCALE":  {"CLIP_LOGIT_SCALE", LogitScale(), "Softmax temperature: fixed, learned or a number (default fixed = 100)"},
		"CLIP_MAX_UPLOAD":   {"CLIP_MAX_UPLOAD", MaxUpload(), "Maximum request body size in bytes"},
		"CLIP_MAX_IMAGES":   {"CLIP_MAX_IMAGES", MaxImages(), "Maximum number of images per search"},
		"CLIP_NUM_PARALLEL": {"CLIP_NUM_PARALLEL", NumParallel(), "Images encoded in parallel per search"},
		"CLIP_CACHE_SIZE":   {"CLIP_CACHE_SIZE", CacheSize(), "Number of cached text embeddings (0 disables the cache)"},
		"CLIP_REDIS_URL":    {"CLIP_REDIS_URL", RedisURL(), "Redis URL for a shared text embedding cache"},
		"CLIP_REDIS_PREFIX": {"CLIP_REDIS_PREFIX", RedisPrefix(), "Key prefix in the shared cache (default clip:text:)"},
		"CLIP_CONFIG":       {"CLIP_CONFIG", ConfigFile(), "YAML file with default values for CLIP_* variables"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
