// MODUL: options
// ZWECK: Functional Options fuer Load
// INPUT: Backend, Device, Threads, Logit-Scale-Modus, Cache
// OUTPUT: loadOptions
// NEBENEFFEKTE: Keine

package openclip

import (
	"github.com/PeterGuy326/react-vision/backend"
	"github.com/PeterGuy326/react-vision/cache"
)

// Logit-Scale-Modi
const (
	ScaleFixed   = "fixed"
	ScaleLearned = "learned"
)

type loadOptions struct {
	backend    string
	device     string
	threads    int
	library    string
	logitScale string
	registry   *backend.Registry
	cache      cache.Cache
}

// Option ist eine funktionale Option fuer Load.
type Option func(*loadOptions)

func defaultLoadOptions() loadOptions {
	return loadOptions{
		backend:    "onnx",
		device:     "cpu",
		logitScale: ScaleFixed,
		registry:   backend.DefaultRegistry,
	}
}

// WithBackend waehlt das Backend aus der Registry
func WithBackend(name string) Option {
	return func(o *loadOptions) {
		if name != "" {
			o.backend = name
		}
	}
}

// WithDevice setzt das Compute-Device ("cpu", "cuda")
func WithDevice(device string) Option {
	return func(o *loadOptions) {
		if device != "" {
			o.device = device
		}
	}
}

// WithThreads setzt die Intra-Op Threads (0 = auto)
func WithThreads(n int) Option {
	return func(o *loadOptions) {
		o.threads = n
	}
}

// WithLibrary setzt den Pfad zur Laufzeit-Bibliothek
func WithLibrary(path string) Option {
	return func(o *loadOptions) {
		o.library = path
	}
}

// WithLogitScale setzt den Temperaturmodus: "fixed", "learned" oder eine Zahl
func WithLogitScale(mode string) Option {
	return func(o *loadOptions) {
		if mode != "" {
			o.logitScale = mode
		}
	}
}

// WithRegistry nutzt eine eigene Backend-Registry
func WithRegistry(r *backend.Registry) Option {
	return func(o *loadOptions) {
		o.registry = r
	}
}

// WithCache aktiviert den Text-Embedding-Cache
func WithCache(c cache.Cache) Option {
	return func(o *loadOptions) {
		o.cache = c
	}
}
