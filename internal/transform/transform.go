// Package transform re-encodes stored images before they are served.
package transform

import (
	"fmt"

	"github.com/h2non/bimg"
)

const (
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
	FormatPNG  = "png"

	// DefaultQuality is what every served image is re-encoded at.
	DefaultQuality = 50
	// MaxWidth caps the width a client may ask for.
	MaxWidth = 2560
)

type Options struct {
	Quality int
	Format  string
	// Width resizes keeping the aspect ratio. Zero keeps the original size.
	Width int
}

type Transformer interface {
	Transform(input []byte, opts Options) ([]byte, error)
}

// Bimg transforms with libvips through h2non/bimg.
type Bimg struct{}

func (Bimg) Transform(input []byte, opts Options) ([]byte, error) {
	imageType, err := bimgType(opts.Format)
	if err != nil {
		return nil, err
	}
	out, err := bimg.NewImage(input).Process(bimg.Options{
		Quality:       opts.Quality,
		Type:          imageType,
		Width:         opts.Width,
		StripMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("bimg process: %w", err)
	}
	return out, nil
}

func bimgType(format string) (bimg.ImageType, error) {
	switch format {
	case "", FormatJPEG:
		return bimg.JPEG, nil
	case FormatWebP:
		return bimg.WEBP, nil
	case FormatPNG:
		return bimg.PNG, nil
	default:
		return bimg.UNKNOWN, fmt.Errorf("unsupported output format %q", format)
	}
}

// ContentType is the response content type for format.
func ContentType(format string) string {
	switch format {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}
