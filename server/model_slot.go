// model_slot.go - Zustand des im Hintergrund geladenen Modells
// Enthaelt: modelSlot mit den Zustaenden loading, ready, failed

package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PeterGuy326/react-vision/api"
)

// LoadFunc laedt das Modell. Wird einmal beim Start aufgerufen.
type LoadFunc func(ctx context.Context) (Model, error)

// modelSlot haelt das Modell und den Ladezustand
type modelSlot struct {
	mu    sync.RWMutex
	state string
	model Model
	err   error
	ready chan struct{}
}

func newModelSlot() *modelSlot {
	return &modelSlot{
		state: api.ModelStateLoading,
		ready: make(chan struct{}),
	}
}

// load ruft fn mit Timeout auf und setzt danach den Zustand
func (s *modelSlot) load(ctx context.Context, fn LoadFunc, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	m, err := callLoader(ctx, fn)
	if err == nil && m == nil {
		err = fmt.Errorf("loader returned no model")
	}

	if err != nil {
		slog.Error("model load failed", "error", err, "duration", time.Since(start))
		s.fail(err)
		return
	}

	info := m.Info()
	slog.Info("model loaded", "arch", info.Arch, "backend", info.Backend.Name, "device", info.Backend.Device, "duration", time.Since(start))
	s.set(m)
}

// callLoader faengt Panics des Loaders ab, der Server bleibt im Zustand failed erreichbar
func callLoader(ctx context.Context, fn LoadFunc) (m Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return fn(ctx)
}

// set markiert das Modell als bereit
func (s *modelSlot) set(m Model) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model, s.err, s.state = m, nil, api.ModelStateReady
	s.signal()
}

// fail markiert das Laden als fehlgeschlagen
func (s *modelSlot) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model, s.err, s.state = nil, err, api.ModelStateFailed
	s.signal()
}

func (s *modelSlot) signal() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// get gibt das Modell zurueck oder errModelLoading / errModelNotLoaded
func (s *modelSlot) get() (Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case api.ModelStateReady:
		return s.model, nil
	case api.ModelStateFailed:
		return nil, errModelNotLoaded
	default:
		return nil, errModelLoading
	}
}

// status gibt Zustand und Ladefehler zurueck
func (s *modelSlot) status() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.err
}

// wait blockiert bis das Laden abgeschlossen ist oder ctx endet
func (s *modelSlot) wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close gibt das Modell frei
func (s *modelSlot) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return nil
	}
	err := s.model.Close()
	s.model, s.state = nil, api.ModelStateFailed
	s.err = errModelNotLoaded
	return err
}
