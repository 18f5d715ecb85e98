package openclip

import "errors"

var (
	ErrConfigNotFound    = errors.New("openclip: config not found")
	ErrInvalidConfig     = errors.New("openclip: invalid config")
	ErrWeightsNotFound   = errors.New("openclip: weights not found")
	ErrVocabNotFound     = errors.New("openclip: bpe vocab not found")
	ErrModelClosed       = errors.New("openclip: model closed")
	ErrEmptyInput        = errors.New("openclip: empty input")
	ErrDimensionMismatch = errors.New("openclip: dimension mismatch")
)
