package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const pngConverterName = "PngConverterCommand"

// PngConverterCommand re-encodes any supported upload (gif, jpeg, bmp, tiff, webp, svg) as PNG.
type PngConverterCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewPngConverterCommand reads the optional svgFallbackWidth/svgFallbackHeight used for
// SVGs without an explicit size.
func NewPngConverterCommand(params map[string]any) (Command, error) {
	w := GetIntParam(params, "svgFallbackWidth", 0)
	h := GetIntParam(params, "svgFallbackHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("svg fallback size must not be negative, got %dx%d", w, h)
	}
	return &PngConverterCommand{
		name:              pngConverterName,
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
	}, nil
}

func (c *PngConverterCommand) Name() string {
	return c.name
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if hasPNGSignature(imageData) {
		return imageData, nil
	}
	if isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	slog.Debug("PngConverterCommand: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	return encodePNG(img)
}

func (c *PngConverterCommand) convertSVG(imageData []byte) ([]byte, error) {
	w, h, ok := parseSvgExplicitSize(imageData)
	if !ok {
		if c.svgFallbackWidth <= 0 || c.svgFallbackHeight <= 0 {
			return nil, fmt.Errorf("SVG fallback size not set; cannot render SVG without explicit size")
		}
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
	}
	slog.Debug("PngConverterCommand: rendering SVG", "width", w, "height", h, "explicit_size", ok)

	out, err := renderSVGToPNG(imageData, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render SVG to PNG: %w", err)
	}
	return out, nil
}

// parseSvgExplicitSize extracts the width and height attributes of the <svg> start tag.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := min(len(data), 8192)
	s := strings.ToLower(string(data[:n]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	j := strings.Index(s[i:], ">")
	if j < 0 {
		j = len(s)
	} else {
		j = i + j
	}
	tag := s[i:j]

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	// a viewBox alone is not a pixel size
	return 0, 0, false
}

// parseNumericAttr reads the leading integer of a quoted attribute value, e.g. width="123px".
func parseNumericAttr(tag, attr string) (int, bool) {
	pos := strings.Index(tag, " "+attr+"=")
	if pos < 0 {
		return 0, false
	}
	rest := tag[pos+len(attr)+2:]
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	val := rest[1:]
	if end := strings.IndexByte(val, quote); end >= 0 {
		val = val[:end]
	}

	num := 0
	found := false
	for i := 0; i < len(val); i++ {
		ch := val[i]
		if ch < '0' || ch > '9' {
			break
		}
		found = true
		num = num*10 + int(ch-'0')
	}
	if !found || num <= 0 {
		return 0, false
	}
	return num, true
}

// isSVGData looks for an <svg tag in the first 4KB.
func isSVGData(data []byte) bool {
	n := min(len(data), 4096)
	if n == 0 {
		return false
	}
	header := bytes.ToLower(data[:n])
	return bytes.Contains(header, []byte("<svg"))
}

// renderSVGToPNG rasterizes svgData onto a white canvas of the given size.
func renderSVGToPNG(svgData []byte, targetW, targetH int) ([]byte, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := createTargetCanvas(targetW, targetH, color.RGBA{255, 255, 255, 255})
	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return encodePNG(dst)
}

func init() {
	mustRegister(pngConverterName, NewPngConverterCommand)
}
