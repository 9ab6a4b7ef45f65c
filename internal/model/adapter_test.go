package model_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agriml-api/internal/model"
)

type fakeRunner struct {
	mu     sync.Mutex
	out    []float32
	err    error
	calls  int
	closed bool
}

func (f *fakeRunner) Run(_ context.Context, _ []float32) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func loaded(t *testing.T, name string, r model.Runner, meta model.Metadata) *model.Handle {
	t.Helper()
	h := model.NewHandle(name)
	require.NoError(t, h.Load(func() (model.Runner, model.Metadata, error) { return r, meta, nil }))
	return h
}

func TestHandle_StartsUninitialized(t *testing.T) {
	h := model.NewHandle("quality")
	assert.Equal(t, model.StateUninitialized, h.State())

	_, err := h.Run(context.Background(), []float32{1})
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
}

func TestHandle_FailedLoadIsTerminal(t *testing.T) {
	h := model.NewHandle("disease")
	loadErr := errors.New("no such file")

	err := h.Load(func() (model.Runner, model.Metadata, error) { return nil, model.Metadata{}, loadErr })
	require.ErrorIs(t, err, loadErr)
	assert.Equal(t, model.StateFailed, h.State())
	assert.ErrorIs(t, h.Err(), loadErr)

	runner := &fakeRunner{out: []float32{1}}
	err = h.Load(func() (model.Runner, model.Metadata, error) { return runner, model.Metadata{}, nil })
	assert.Error(t, err)
	assert.Equal(t, model.StateFailed, h.State())

	for i := 0; i < 3; i++ {
		_, err := h.Run(context.Background(), []float32{1})
		assert.ErrorIs(t, err, model.ErrModelUnavailable)
	}
	_, err = h.Metadata()
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
	assert.Zero(t, runner.calls)
}

func TestHandle_LoadOnce(t *testing.T) {
	h := loaded(t, "m", &fakeRunner{}, model.Metadata{})
	assert.Equal(t, model.StateReady, h.State())
	assert.NoError(t, h.Err())

	err := h.Load(func() (model.Runner, model.Metadata, error) { return &fakeRunner{}, model.Metadata{}, nil })
	assert.Error(t, err)
	assert.Equal(t, model.StateReady, h.State())
}

func TestHandle_InputSizeChecked(t *testing.T) {
	runner := &fakeRunner{out: []float32{1}}
	h := loaded(t, "m", runner, model.Metadata{InputShape: []int64{1, 3}, OutputShape: []int64{1, 1}})

	_, err := h.Run(context.Background(), []float32{1, 2})
	assert.ErrorContains(t, err, "expected 3 input values")
	assert.Zero(t, runner.calls)

	_, err = h.Run(context.Background(), []float32{1, 2, 3})
	assert.NoError(t, err)
}

func TestHandle_RunnerErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	h := loaded(t, "m", &fakeRunner{err: boom}, model.Metadata{})

	_, err := h.Run(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, model.ErrModelUnavailable)
}

func TestHandle_Close(t *testing.T) {
	runner := &fakeRunner{}
	h := loaded(t, "m", runner, model.Metadata{})
	require.NoError(t, h.Close())
	assert.True(t, runner.closed)

	assert.NoError(t, model.NewHandle("never").Close())
}

func TestClassifier_SoftmaxDistribution(t *testing.T) {
	labels := []string{"C", "A", "B"}
	h := loaded(t, "quality", &fakeRunner{out: []float32{0.5, 3.0, 1.0}}, model.Metadata{})
	c := model.NewClassifier(h, labels, true)

	res, err := c.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "A", res.Label)

	var sum float64
	for _, p := range res.Probabilities {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, res.Probabilities[1]*100, res.Confidence, 1e-9)

	m := res.ProbabilityMap([]string{"C (Bad)", "A (Good)", "B (Mixed)"})
	require.Len(t, m, 3)
	assert.Regexp(t, `^\d+\.\d{2}%$`, m["A (Good)"])
}

func TestClassifier_NormalizesScores(t *testing.T) {
	h := loaded(t, "crop", &fakeRunner{out: []float32{1, 1, 2}}, model.Metadata{})
	c := model.NewClassifier(h, []string{"Barley", "Maize", "Rice"}, false)

	res, err := c.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Rice", res.Label)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, res.Probabilities, 1e-9)
	assert.Equal(t, map[string]string{"Barley": "25.00%", "Maize": "25.00%", "Rice": "50.00%"},
		res.ProbabilityMap(c.Labels()))
}

func TestClassifier_Errors(t *testing.T) {
	h := loaded(t, "m", &fakeRunner{out: []float32{1, 2}}, model.Metadata{})
	_, err := model.NewClassifier(h, []string{"a", "b", "c"}, true).Predict(context.Background(), nil)
	assert.ErrorContains(t, err, "2 scores for 3 labels")

	h = loaded(t, "m", &fakeRunner{out: []float32{-1, 2}}, model.Metadata{})
	_, err = model.NewClassifier(h, []string{"a", "b"}, false).Predict(context.Background(), nil)
	assert.Error(t, err)

	_, err = model.NewClassifier(model.NewHandle("x"), []string{"a"}, true).Predict(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
}

func TestRegressor_RoundsToCents(t *testing.T) {
	h := loaded(t, "min", &fakeRunner{out: []float32{2172.456}}, model.Metadata{})
	v, err := model.NewRegressor(h).Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2172.46, v)

	h = loaded(t, "empty", &fakeRunner{out: nil}, model.Metadata{})
	_, err = model.NewRegressor(h).Predict(context.Background(), nil)
	assert.Error(t, err)
}

func TestSoftmax_LargeLogits(t *testing.T) {
	p := model.Softmax([]float32{1000, 1000})
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)
	for _, v := range p {
		assert.False(t, math.IsNaN(v))
	}
}

func TestLoadMetadata_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"input_shape": [1, 180, 180, 3],
		"output_shape": [1, 3],
		"classes": ["Bad Quality_Fruits", "Good Quality_Fruits", "Mixed Qualit_Fruits"],
		"image_size": 180
	}`), 0o644))

	m, err := model.LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "input", m.InputName)
	assert.Equal(t, "output", m.OutputName)
	assert.Equal(t, "nhwc", m.Layout)
	assert.Equal(t, float32(1), m.PixelScale)
	assert.Equal(t, 180*180*3, m.InputSize())
	assert.Equal(t, 3, m.OutputSize())
}

func TestLoadMetadata_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := model.LoadMetadata(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	_, err = model.LoadMetadata(path)
	assert.ErrorContains(t, err, "input_shape")
}
