package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis speichert Embeddings als little-endian float32 Blobs
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisOption konfiguriert den Redis-Cache
type RedisOption func(*Redis)

// WithTTL setzt die Lebensdauer der Eintraege
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithKeyPrefix setzt ein Praefix fuer alle Schluessel
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.keyPrefix = prefix
	}
}

// NewRedis verbindet sich mit der Redis-URL (redis://host:port/db)
func NewRedis(url string, options ...RedisOption) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisClient(redis.NewClient(opts), options...), nil
}

// NewRedisClient nutzt einen bestehenden Client
func NewRedisClient(client *redis.Client, options ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		ttl:       24 * time.Hour,
		keyPrefix: "clip:text:",
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		slog.Warn("redis cache entry invalid", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (r *Redis) Set(ctx context.Context, key string, vec []float32) {
	if err := r.client.Set(ctx, r.keyPrefix+key, encodeVector(vec), r.ttl).Err(); err != nil {
		slog.Warn("redis cache set failed", "key", key, "error", err)
	}
}

// Ping prueft die Verbindung
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close schliesst den Client
func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
