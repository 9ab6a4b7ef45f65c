package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// InitRuntime loads the onnxruntime shared library. It must succeed before
// any ONNX model is loaded.
func InitRuntime(libPath string) error {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func ShutdownRuntime() error {
	return ort.DestroyEnvironment()
}

// ONNXRunner runs an ONNX graph with one float32 input and one float32
// output. Tensors are allocated per call, so Run is safe for concurrent use.
type ONNXRunner struct {
	session     *ort.DynamicAdvancedSession
	inputShape  ort.Shape
	outputShape ort.Shape
}

func NewONNXRunner(modelPath string, meta Metadata) (*ONNXRunner, error) {
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXRunner{
		session:     session,
		inputShape:  ort.NewShape(meta.InputShape...),
		outputShape: ort.NewShape(meta.OutputShape...),
	}, nil
}

// LoadONNX returns a Loader for a model file and its metadata file.
func LoadONNX(modelPath, metadataPath string) Loader {
	return func() (Runner, Metadata, error) {
		meta, err := LoadMetadata(metadataPath)
		if err != nil {
			return nil, Metadata{}, err
		}
		runner, err := NewONNXRunner(modelPath, meta)
		if err != nil {
			return nil, Metadata{}, err
		}
		return runner, meta, nil
	}
}

func (r *ONNXRunner) Run(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(r.inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](r.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := r.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, err
	}

	out := make([]float32, len(outputTensor.GetData()))
	copy(out, outputTensor.GetData())
	return out, nil
}

func (r *ONNXRunner) Close() error {
	if r.session == nil {
		return nil
	}
	return r.session.Destroy()
}
