package imageprocessing

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
)

const cropName = "CropCommand"

// CropParams describes the aspect ratio of the crop box; only the ratio of Width to
// Height matters.
type CropParams struct {
	Width  int
	Height int
}

// NewCropParamsFromMap reads the required width and height parameters.
func NewCropParamsFromMap(params map[string]any) (*CropParams, error) {
	if err := ValidateRequiredParams(params, []string{"height", "width"}); err != nil {
		return nil, err
	}

	height := GetIntParam(params, "height", 0)
	width := GetIntParam(params, "width", 0)
	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}
	return &CropParams{Width: width, Height: height}, nil
}

// CropCommand cuts the largest centered region with the configured aspect ratio, so the
// result covers a cell of that shape without letterboxing.
type CropCommand struct {
	name   string
	params *CropParams
}

func NewCropCommand(params map[string]any) (Command, error) {
	typedParams, err := NewCropParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &CropCommand{name: cropName, params: typedParams}, nil
}

func (c *CropCommand) Name() string {
	return c.name
}

// Execute expects PNG input and returns PNG output.
func (c *CropCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	cropRect := coverRect(bounds, c.params.Width, c.params.Height)
	if cropRect == bounds {
		slog.Debug("CropCommand: image already has the target aspect ratio")
		return imageData, nil
	}

	slog.Debug("CropCommand: performing center crop",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"crop_x", cropRect.Min.X,
		"crop_y", cropRect.Min.Y,
		"crop_width", cropRect.Dx(),
		"crop_height", cropRect.Dy())

	cropped := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, cropRect.Min, draw.Src)
	return encodePNG(cropped)
}

// coverRect returns the largest rectangle centered in bounds with aspect ratio w:h.
func coverRect(bounds image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return bounds
	}

	cropW, cropH := srcW, srcH
	// compare srcW/srcH with w/h without floating point
	switch {
	case srcW*h > w*srcH:
		cropW = max(srcH*w/h, 1)
	case srcW*h < w*srcH:
		cropH = max(srcW*h/w, 1)
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

func init() {
	mustRegister(cropName, NewCropCommand)
}
