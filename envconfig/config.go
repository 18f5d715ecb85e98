// config.go - Haupt-Konfigurationsfunktionen fuer clipserve
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (CLIP_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (CLIP_ORIGINS)
// - ModelDir: Gibt das Modell-Verzeichnis zurueck (CLIP_MODEL_DIR)
// - LoadTimeout: Gibt Load-Timeout zurueck (CLIP_LOAD_TIMEOUT)
// - LogLevel: Gibt Log-Level zurueck (CLIP_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Inferenz- und Limit-Variablen
// - config_utils.go: Utility-Funktionen und AsMap/Values
// - config_file.go: .env und YAML-Dateien
package envconfig

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPort ist der Standard-Port des Servers
const DefaultPort = "8000"

// Host gibt Scheme und Host zurueck
// Konfigurierbar via CLIP_HOST
// Default: http://127.0.0.1:8000
func Host() *url.URL {
	defaultPort := DefaultPort

	s := strings.TrimSpace(Var("CLIP_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via CLIP_ORIGINS (komma-separiert, "*" erlaubt alle)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("CLIP_ORIGINS"); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	// Standard-Origins fuer localhost (React Dev-Server inklusive)
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// AllowAllOrigins prueft ob CLIP_ORIGINS den Wildcard "*" enthaelt
func AllowAllOrigins() bool {
	for _, o := range strings.Split(Var("CLIP_ORIGINS"), ",") {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// ModelDir gibt das Modell-Verzeichnis zurueck
// Konfigurierbar via CLIP_MODEL_DIR
// Default: ./model
func ModelDir() string {
	if s := Var("CLIP_MODEL_DIR"); s != "" {
		return s
	}
	return "./model"
}

// LoadTimeout gibt das Timeout fuer Model-Laden zurueck
// Konfigurierbar via CLIP_LOAD_TIMEOUT
// 0 oder negative Werte = unendlich
// Default: 5 Minuten
func LoadTimeout() (loadTimeout time.Duration) {
	loadTimeout = 5 * time.Minute
	if s := Var("CLIP_LOAD_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			loadTimeout = d
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			loadTimeout = time.Duration(n) * time.Second
		}
	}

	if loadTimeout <= 0 {
		return time.Duration(math.MaxInt64)
	}

	return loadTimeout
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via CLIP_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("CLIP_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
