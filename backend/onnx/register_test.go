package onnx

import (
	"slices"
	"testing"

	"github.com/PeterGuy326/react-vision/backend"
)

func TestRegistered(t *testing.T) {
	if !slices.Contains(backend.Available(), Name) {
		t.Fatalf("%s nicht in %v registriert", Name, backend.Available())
	}
}

func TestCreateMissingModelDir(t *testing.T) {
	_, err := backend.Create(Name, backend.Options{ModelDir: t.TempDir()})
	if err == nil {
		t.Fatal("Erwartet Fehler ohne visual.onnx")
	}
}
