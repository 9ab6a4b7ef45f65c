package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
)

var ErrInvalidImage = errors.New("invalid image")

type Layout string

const (
	NHWC Layout = "nhwc" // Keras
	NCHW Layout = "nchw" // PyTorch
)

// Options describes the tensor a model expects.
type Options struct {
	Size   int
	Layout Layout
	Scale  float32 // applied to 0-255 channel values
}

func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(s)) {
	case NHWC:
		return NHWC, nil
	case NCHW:
		return NCHW, nil
	default:
		return "", fmt.Errorf("unknown tensor layout %q", s)
	}
}

// Decode reads a JPEG or PNG.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: supported formats are JPEG and PNG", ErrInvalidImage)
	}
	return img, format, nil
}

// Preprocess resizes img to Size x Size and lays out its RGB channels as a
// float32 tensor. Alpha is dropped.
func Preprocess(img image.Image, opts Options) ([]float32, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", opts.Size)
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}

	target := uint(opts.Size)
	resized := resize.Resize(target, target, img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	const channels = 3
	data := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA is 16-bit; >>8 recovers the 0-255 value.
			rv := float32(r>>8) * opts.Scale
			gv := float32(g>>8) * opts.Scale
			bv := float32(b>>8) * opts.Scale

			pixel := y*width + x
			switch opts.Layout {
			case NCHW:
				data[pixel] = rv
				data[plane+pixel] = gv
				data[2*plane+pixel] = bv
			default:
				data[pixel*channels] = rv
				data[pixel*channels+1] = gv
				data[pixel*channels+2] = bv
			}
		}
	}

	return data, nil
}
