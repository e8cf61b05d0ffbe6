package imageprocessing

import (
	"fmt"
)

// DefaultThumbnailWidth is used when no maximum width is configured.
const DefaultThumbnailWidth = 400

// Thumbnailer renders uploads as PNGs shaped like a board cell.
type Thumbnailer struct {
	registry *CommandRegistry
	maxWidth int
	extra    []CommandConfig
}

// NewThumbnailer validates the extra commands, which run after the built-in
// convert, crop and scale steps.
func NewThumbnailer(maxWidth int, extra []CommandConfig) (*Thumbnailer, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailWidth
	}
	if _, err := BuildCommands(DefaultRegistry, extra); err != nil {
		return nil, fmt.Errorf("invalid thumbnail commands: %w", err)
	}
	return &Thumbnailer{
		registry: DefaultRegistry,
		maxWidth: maxWidth,
		extra:    extra,
	}, nil
}

// Thumbnail converts data to PNG, crops it to cover a cellWidth x cellHeight cell and
// scales it to the cell width, capped at the configured maximum.
func (t *Thumbnailer) Thumbnail(data []byte, cellWidth, cellHeight int) ([]byte, error) {
	if cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf("invalid cell size %dx%d", cellWidth, cellHeight)
	}

	width := min(cellWidth, t.maxWidth)
	height := max(width*cellHeight/cellWidth, 1)
	configs := append([]CommandConfig{
		{Name: pngConverterName, Params: map[string]any{"svgFallbackWidth": width, "svgFallbackHeight": height}},
		{Name: cropName, Params: map[string]any{"width": cellWidth, "height": cellHeight}},
		{Name: pixelScaleName, Params: map[string]any{"width": width, "height": height, "interpolation": "bilinear"}},
	}, t.extra...)

	commands, err := BuildCommands(t.registry, configs)
	if err != nil {
		return nil, err
	}
	return NewCommandInvoker(commands).Execute(data)
}
