package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata is the JSON file shipped next to every exported model.
type Metadata struct {
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	InputName    string   `json:"input_name"`
	OutputName   string   `json:"output_name"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
	Layout       string   `json:"layout"`      // "nhwc" or "nchw", image models only
	PixelScale   float32  `json:"pixel_scale"` // multiplier applied to 0-255 channel values
	ApplySoftmax bool     `json:"apply_softmax"`
}

func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(m.InputShape) == 0 || len(m.OutputShape) == 0 {
		return Metadata{}, fmt.Errorf("metadata %s: input_shape and output_shape are required", path)
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.Layout == "" {
		m.Layout = "nhwc"
	}
	if m.PixelScale == 0 {
		m.PixelScale = 1
	}
	return m, nil
}

// InputSize is the number of float32 values one inference consumes.
func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

func (m Metadata) OutputSize() int {
	return shapeSize(m.OutputShape)
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
