// MODUL: registry
// ZWECK: Zentrale Registry fuer Backend-Factories mit Thread-sicherer Verwaltung
// INPUT: Backend-Name, Factory-Funktionen, Options
// OUTPUT: Erzeugte Backend-Instanzen
// NEBENEFFEKTE: Keine (rein speicherbasiert)
// ABHAENGIGKEITEN: sync, sort (stdlib)
// HINWEISE: Backends registrieren sich via init() in ihren Packages

package backend

import (
	"sort"
	"sync"
)

// Factory erzeugt ein Backend
type Factory func(opts Options) (Backend, error)

// ============================================================================
// Registry - Zentrale Backend-Verwaltung
// ============================================================================

// Registry verwaltet registrierte Backend-Factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry erstellt eine neue leere Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registriert eine Factory unter dem angegebenen Namen.
// Ueberschreibt existierende Eintraege ohne Warnung.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Unregister entfernt ein Backend aus der Registry.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.factories[name]
	delete(r.factories, name)
	return exists
}

// Get gibt die Factory fuer den angegebenen Namen zurueck.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	return factory, exists
}

// List gibt die registrierten Namen sortiert zurueck.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create erzeugt ein Backend mit der registrierten Factory.
// Gibt ErrNotRegistered (in RegistryError) zurueck wenn der Name fehlt.
func (r *Registry) Create(name string, opts Options) (Backend, error) {
	factory, exists := r.Get(name)
	if !exists {
		return nil, &RegistryError{Op: "create", Name: name, Err: ErrNotRegistered}
	}

	b, err := factory(opts)
	if err != nil {
		return nil, &RegistryError{Op: "create", Name: name, Err: err}
	}
	return b, nil
}

// ============================================================================
// Fehler und globale Instanz
// ============================================================================

// RegistryError ist ein Fehler mit zusaetzlichem Kontext.
type RegistryError struct {
	Op   string
	Name string
	Err  error
}

func (e *RegistryError) Error() string {
	return "backend: " + e.Op + " '" + e.Name + "': " + e.Err.Error()
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// DefaultRegistry ist die globale Registry.
var DefaultRegistry = NewRegistry()

// Register registriert eine Factory in der DefaultRegistry.
func Register(name string, factory Factory) {
	DefaultRegistry.Register(name, factory)
}

// Create erzeugt ein Backend aus der DefaultRegistry.
func Create(name string, opts Options) (Backend, error) {
	return DefaultRegistry.Create(name, opts)
}

// Available gibt die Namen aller Backends der DefaultRegistry zurueck.
func Available() []string {
	return DefaultRegistry.List()
}
