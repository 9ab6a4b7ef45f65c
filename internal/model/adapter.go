package model

import (
	"context"
	"fmt"
	"math"
)

// Classification is a classifier's answer: the argmax label and the full
// distribution over the classifier's labels, in label order.
type Classification struct {
	Index         int
	Label         string
	Confidence    float64 // percent, 0-100
	Probabilities []float64
}

// ProbabilityMap renders the distribution as key -> "NN.NN%". keys must be
// parallel to the classifier's labels.
func (c *Classification) ProbabilityMap(keys []string) map[string]string {
	out := make(map[string]string, len(c.Probabilities))
	for i, p := range c.Probabilities {
		if i >= len(keys) {
			break
		}
		out[keys[i]] = fmt.Sprintf("%.2f%%", p*100)
	}
	return out
}

// Classifier maps a model's output vector to a distribution over labels.
type Classifier struct {
	handle  *Handle
	labels  []string
	softmax bool
}

// NewClassifier wraps handle. When softmax is set the raw outputs are
// treated as logits, otherwise as unnormalised non-negative scores.
func NewClassifier(handle *Handle, labels []string, softmax bool) *Classifier {
	return &Classifier{handle: handle, labels: append([]string(nil), labels...), softmax: softmax}
}

func (c *Classifier) Labels() []string { return append([]string(nil), c.labels...) }

func (c *Classifier) Handle() *Handle { return c.handle }

func (c *Classifier) Predict(ctx context.Context, input []float32) (*Classification, error) {
	raw, err := c.handle.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(c.labels) {
		return nil, fmt.Errorf("%s: model returned %d scores for %d labels", c.handle.Name(), len(raw), len(c.labels))
	}

	var probs []float64
	if c.softmax {
		probs = Softmax(raw)
	} else {
		probs, err = Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.handle.Name(), err)
		}
	}

	best := Argmax(probs)
	return &Classification{
		Index:         best,
		Label:         c.labels[best],
		Confidence:    probs[best] * 100,
		Probabilities: probs,
	}, nil
}

// Regressor returns the first output of a model, rounded to 2 decimals.
type Regressor struct {
	handle *Handle
}

func NewRegressor(handle *Handle) *Regressor {
	return &Regressor{handle: handle}
}

func (r *Regressor) Handle() *Handle { return r.handle }

func (r *Regressor) Predict(ctx context.Context, input []float32) (float64, error) {
	raw, err := r.handle.Run(ctx, input)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("%s: model returned no output", r.handle.Name())
	}
	return Round2(float64(raw[0])), nil
}

// Softmax is computed with the max logit subtracted for stability.
func Softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	hi := float64(logits[0])
	for _, v := range logits[1:] {
		hi = math.Max(hi, float64(v))
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Normalize scales non-negative scores to sum to 1.
func Normalize(scores []float32) ([]float64, error) {
	out := make([]float64, len(scores))
	var sum float64
	for i, v := range scores {
		if v < 0 || math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("invalid class score %v at %d", v, i)
		}
		out[i] = float64(v)
		sum += out[i]
	}
	if sum == 0 {
		return nil, fmt.Errorf("class scores sum to zero")
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// Argmax returns the first index of the largest value.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
