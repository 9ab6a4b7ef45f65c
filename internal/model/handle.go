package model

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrModelUnavailable is returned for every call against a model that is not
// Ready. A model that failed to load stays unavailable until restart.
var ErrModelUnavailable = errors.New("model unavailable")

// Runner executes one forward pass of a loaded model.
type Runner interface {
	Run(ctx context.Context, input []float32) ([]float32, error)
	Close() error
}

// Loader opens a model artifact. It runs once, from Handle.Load.
type Loader func() (Runner, Metadata, error)

type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Handle tracks one model through Uninitialized -> Loading -> Ready|Failed.
// runner, meta and loadErr are written before the terminal state is stored
// and never change afterwards.
type Handle struct {
	name    string
	state   atomic.Int32
	runner  Runner
	meta    Metadata
	loadErr error
}

func NewHandle(name string) *Handle {
	return &Handle{name: name}
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) State() State { return State(h.state.Load()) }

// Err returns the load error once the handle has Failed.
func (h *Handle) Err() error {
	if h.State() != StateFailed {
		return nil
	}
	return h.loadErr
}

// Load runs load exactly once. Calling Load again returns an error and does
// not touch the existing state.
func (h *Handle) Load(load Loader) error {
	if !h.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoading)) {
		return fmt.Errorf("model %s: load called in state %s", h.name, h.State())
	}

	runner, meta, err := load()
	if err != nil {
		h.loadErr = fmt.Errorf("model %s: %w", h.name, err)
		h.state.Store(int32(StateFailed))
		return h.loadErr
	}

	h.runner = runner
	h.meta = meta
	h.state.Store(int32(StateReady))
	return nil
}

func (h *Handle) unavailable() error {
	return fmt.Errorf("%s: %w", h.name, ErrModelUnavailable)
}

// Metadata returns the model's metadata, or ErrModelUnavailable.
func (h *Handle) Metadata() (Metadata, error) {
	if h.State() != StateReady {
		return Metadata{}, h.unavailable()
	}
	return h.meta, nil
}

// Run executes the model. It fails fast with ErrModelUnavailable unless the
// handle is Ready.
func (h *Handle) Run(ctx context.Context, input []float32) ([]float32, error) {
	if h.State() != StateReady {
		return nil, h.unavailable()
	}
	if want := h.meta.InputSize(); want > 0 && len(input) != want {
		return nil, fmt.Errorf("%s: expected %d input values, got %d", h.name, want, len(input))
	}
	out, err := h.runner.Run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s: inference failed: %w", h.name, err)
	}
	return out, nil
}

func (h *Handle) Close() error {
	if h.State() != StateReady {
		return nil
	}
	return h.runner.Close()
}
