// Package cache haelt Text-Embeddings zwischen Anfragen vor.
//
// Labels wie "a photo of a cat" wiederholen sich zwischen Anfragen; ihr
// Embedding haengt nur vom Modell und dem Text ab.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"time"
)

// pingTimeout begrenzt die Verbindungspruefung beim Start
const pingTimeout = 2 * time.Second

// Cache speichert Embeddings unter einem Schluessel
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

// Key bildet den Schluessel <arch>:<sha256(text)>
func Key(arch, text string) string {
	sum := sha256.Sum256([]byte(text))
	return arch + ":" + hex.EncodeToString(sum[:])
}

// Config beschreibt die gewuenschten Cache-Ebenen
type Config struct {
	// Size ist die Anzahl Eintraege im Speicher (0 = aus)
	Size int

	// RedisURL aktiviert den geteilten Redis-Cache
	RedisURL string

	// TTL fuer Redis-Eintraege
	TTL time.Duration

	// KeyPrefix fuer Redis-Schluessel (leer = "clip:text:")
	KeyPrefix string
}

// New baut einen Cache aus der Konfiguration. Ohne aktive Ebene wird nil zurueckgegeben.
// Ist Redis nicht erreichbar, laeuft der Cache ohne die Redis-Ebene weiter.
func New(ctx context.Context, cfg Config) (Cache, error) {
	var levels []Cache

	if cfg.Size > 0 {
		levels = append(levels, NewMemory(cfg.Size))
	}

	if cfg.RedisURL != "" {
		var opts []RedisOption
		if cfg.TTL > 0 {
			opts = append(opts, WithTTL(cfg.TTL))
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, WithKeyPrefix(cfg.KeyPrefix))
		}
		r, err := NewRedis(cfg.RedisURL, opts...)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = r.Ping(pingCtx)
		cancel()
		if err != nil {
			slog.Warn("redis cache unavailable, continuing without it", "error", err)
			r.Close()
		} else {
			levels = append(levels, r)
		}
	}

	slog.Debug("text embedding cache", "memory", cfg.Size, "levels", len(levels))

	switch len(levels) {
	case 0:
		return nil, nil
	case 1:
		return levels[0], nil
	default:
		return Chain(levels), nil
	}
}

// Chain fragt die Ebenen der Reihe nach ab und fuellt vordere Ebenen bei Treffern auf
type Chain []Cache

func (c Chain) Get(ctx context.Context, key string) ([]float32, bool) {
	for i, level := range c {
		if vec, ok := level.Get(ctx, key); ok {
			for _, front := range c[:i] {
				front.Set(ctx, key, vec)
			}
			return vec, true
		}
	}
	return nil, false
}

func (c Chain) Set(ctx context.Context, key string, vec []float32) {
	for _, level := range c {
		level.Set(ctx, key, vec)
	}
}

// Close schliesst alle Ebenen mit Verbindungen
func (c Chain) Close() error {
	var errs []error
	for _, level := range c {
		if err := Close(level); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close schliesst c, falls die Ebene Ressourcen haelt
func Close(c Cache) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
