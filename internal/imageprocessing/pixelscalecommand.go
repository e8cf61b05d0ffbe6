package imageprocessing

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	xdraw "golang.org/x/image/draw"
)

const pixelScaleName = "PixelScaleCommand"

// PixelScaleParams represents typed parameters for pixel scale command
type PixelScaleParams struct {
	Height *int // Optional: if nil, will be calculated from width
	Width  *int // Optional: if nil, will be calculated from height
	// Interpolation is "nearest" (default) or "bilinear".
	Interpolation string
}

// NewPixelScaleParamsFromMap creates PixelScaleParams from a generic map
func NewPixelScaleParamsFromMap(params map[string]any) (*PixelScaleParams, error) {
	_, hasHeight := params["height"]
	_, hasWidth := params["width"]
	if !hasHeight && !hasWidth {
		return nil, fmt.Errorf("at least one of 'height' or 'width' must be specified")
	}

	result := &PixelScaleParams{
		Interpolation: strings.ToLower(GetStringParam(params, "interpolation", "nearest")),
	}
	if result.Interpolation != "nearest" && result.Interpolation != "bilinear" {
		return nil, fmt.Errorf("unsupported interpolation %q", result.Interpolation)
	}

	if hasHeight {
		height := GetIntParam(params, "height", 0)
		if height <= 0 {
			return nil, fmt.Errorf("height must be positive, got %d", height)
		}
		result.Height = &height
	}
	if hasWidth {
		width := GetIntParam(params, "width", 0)
		if width <= 0 {
			return nil, fmt.Errorf("width must be positive, got %d", width)
		}
		result.Width = &width
	}
	return result, nil
}

// PixelScaleCommand scales an image, preserving the aspect ratio when only one
// dimension is configured.
type PixelScaleCommand struct {
	name   string
	params *PixelScaleParams
}

// NewPixelScaleCommand creates a new pixel scale command from configuration parameters
func NewPixelScaleCommand(params map[string]any) (Command, error) {
	typedParams, err := NewPixelScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &PixelScaleCommand{name: pixelScaleName, params: typedParams}, nil
}

func (c *PixelScaleCommand) Name() string {
	return c.name
}

// Execute expects PNG input and returns PNG output.
func (c *PixelScaleCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := c.targetSize(bounds.Dx(), bounds.Dy())
	if targetWidth == bounds.Dx() && targetHeight == bounds.Dy() {
		return imageData, nil
	}

	slog.Debug("PixelScaleCommand: scaling image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", targetWidth,
		"target_height", targetHeight,
		"interpolation", c.params.Interpolation)

	target := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	if c.params.Interpolation == "bilinear" {
		xdraw.ApproxBiLinear.Scale(target, target.Bounds(), img, bounds, xdraw.Src, nil)
	} else {
		scaleNearest(target, img)
	}
	return encodePNG(target)
}

func (c *PixelScaleCommand) targetSize(originalWidth, originalHeight int) (int, int) {
	aspectRatio := float64(originalWidth) / float64(max(originalHeight, 1))
	switch {
	case c.params.Width != nil && c.params.Height != nil:
		return *c.params.Width, *c.params.Height
	case c.params.Width != nil:
		return *c.params.Width, max(int(float64(*c.params.Width)/aspectRatio), 1)
	default:
		return max(int(float64(*c.params.Height)*aspectRatio), 1), *c.params.Height
	}
}

// scaleNearest fills target by sampling the nearest source pixel, one row per worker step.
func scaleNearest(target *image.RGBA, src image.Image) {
	sb := src.Bounds()
	tw, th := target.Bounds().Dx(), target.Bounds().Dy()
	parallelFor(th, func(y int) {
		srcY := sb.Min.Y + min(y*sb.Dy()/th, sb.Dy()-1)
		for x := 0; x < tw; x++ {
			srcX := sb.Min.X + min(x*sb.Dx()/tw, sb.Dx()-1)
			target.Set(x, y, src.At(srcX, srcY))
		}
	})
}

// GetHeight returns the configured height (may be nil if not specified)
func (c *PixelScaleCommand) GetHeight() *int {
	return c.params.Height
}

// GetWidth returns the configured width (may be nil if not specified)
func (c *PixelScaleCommand) GetWidth() *int {
	return c.params.Width
}

func init() {
	mustRegister(pixelScaleName, NewPixelScaleCommand)
}
