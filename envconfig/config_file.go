// config_file.go - Laden von .env- und YAML-Konfigurationsdateien
//
// Dateien liefern nur Defaults: bereits gesetzte Environment-Variablen
// werden nie ueberschrieben. Alle Werte landen im Prozess-Environment und
// werden danach ueber Var() gelesen.
package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFile gibt den Pfad zur YAML-Konfiguration zurueck (CLIP_CONFIG)
var ConfigFile = String("CLIP_CONFIG")

// LoadDotEnv laedt .env-Dateien. Fehlende Dateien werden ignoriert.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		slog.Debug("loaded env file", "path", p)
	}

	return nil
}

// LoadFile liest eine YAML-Datei mit Schluessel/Wert-Paaren.
// Schluessel werden zu CLIP_* normalisiert: "model_dir" -> CLIP_MODEL_DIR.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for k, v := range values {
		key := normalizeKey(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, formatValue(v)); err != nil {
			return err
		}
	}

	slog.Debug("loaded config file", "path", path, "keys", len(values))
	return nil
}

// Load laedt .env und, falls CLIP_CONFIG gesetzt ist, die YAML-Datei
func Load() error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	if p := ConfigFile(); p != "" {
		return LoadFile(p)
	}
	return nil
}

// normalizeKey wandelt einen YAML-Schluessel in einen CLIP_* Variablennamen um
func normalizeKey(k string) string {
	k = strings.ToUpper(strings.TrimSpace(k))
	k = strings.NewReplacer("-", "_", ".", "_").Replace(k)
	if !strings.HasPrefix(k, "CLIP_") {
		k = "CLIP_" + k
	}
	return k
}

// formatValue konvertiert YAML-Werte in Environment-Strings
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
