package imageprocessing

import (
	"bytes"
	"image"
	"testing"
)

const svgWithSize = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20"><rect x="0" y="0" width="40" height="20" fill="#ff0000"/></svg>`

const svgWithoutSize = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><circle cx="5" cy="5" r="4" fill="blue"/></svg>`

func TestPngConverterCommand_Execute(t *testing.T) {
	command, err := NewPngConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("NewPngConverterCommand error: %v", err)
	}

	t.Run("png passthrough", func(t *testing.T) {
		in := pngBytes(t, 4, 3)
		out, err := command.Execute(in)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if !bytes.Equal(in, out) {
			t.Fatal("PNG input was re-encoded")
		}
	})

	t.Run("jpeg converted", func(t *testing.T) {
		out, err := command.Execute(jpegBytes(t, 16, 8))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if w, h := pngSize(t, out); w != 16 || h != 8 {
			t.Fatalf("converted size = %dx%d, want 16x8", w, h)
		}
	})

	t.Run("svg with explicit size", func(t *testing.T) {
		out, err := command.Execute([]byte(svgWithSize))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if w, h := pngSize(t, out); w != 40 || h != 20 {
			t.Fatalf("rendered size = %dx%d, want 40x20", w, h)
		}
	})

	t.Run("svg without size needs fallback", func(t *testing.T) {
		if _, err := command.Execute([]byte(svgWithoutSize)); err == nil {
			t.Fatal("expected error without fallback size")
		}
		withFallback, err := NewPngConverterCommand(map[string]any{"svgFallbackWidth": 12, "svgFallbackHeight": 12})
		if err != nil {
			t.Fatalf("NewPngConverterCommand error: %v", err)
		}
		out, err := withFallback.Execute([]byte(svgWithoutSize))
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if w, h := pngSize(t, out); w != 12 || h != 12 {
			t.Fatalf("rendered size = %dx%d, want 12x12", w, h)
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		if _, err := command.Execute([]byte("not a valid image")); err == nil {
			t.Fatal("expected error for invalid image data")
		}
	})
}

func TestParseSvgExplicitSize(t *testing.T) {
	tests := []struct {
		svg    string
		w, h   int
		wantOk bool
	}{
		{svg: svgWithSize, w: 40, h: 20, wantOk: true},
		{svg: `<svg width='120px' height='80px'></svg>`, w: 120, h: 80, wantOk: true},
		{svg: svgWithoutSize, wantOk: false},
		{svg: `<svg width="100%" height="auto"></svg>`, wantOk: false},
		{svg: `<html></html>`, wantOk: false},
	}
	for _, tt := range tests {
		w, h, ok := parseSvgExplicitSize([]byte(tt.svg))
		if ok != tt.wantOk || (ok && (w != tt.w || h != tt.h)) {
			t.Errorf("parseSvgExplicitSize(%q) = (%d, %d, %v), want (%d, %d, %v)", tt.svg, w, h, ok, tt.w, tt.h, tt.wantOk)
		}
	}
}

func TestCropCommand(t *testing.T) {
	if _, err := NewCropCommand(map[string]any{"width": 1}); err == nil {
		t.Error("expected error for missing height")
	}
	if _, err := NewCropCommand(map[string]any{"width": 0, "height": 1}); err == nil {
		t.Error("expected error for zero width")
	}

	square, err := NewCropCommand(map[string]any{"width": 1, "height": 1})
	if err != nil {
		t.Fatalf("NewCropCommand error: %v", err)
	}

	out, err := square.Execute(pngBytes(t, 400, 100))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if w, h := pngSize(t, out); w != 100 || h != 100 {
		t.Fatalf("cropped size = %dx%d, want 100x100", w, h)
	}

	in := pngBytes(t, 50, 50)
	out, err = square.Execute(in)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatal("image with matching aspect ratio was re-encoded")
	}
}

func TestCoverRect(t *testing.T) {
	tests := []struct {
		bounds image.Rectangle
		w, h   int
		want   image.Rectangle
	}{
		{bounds: image.Rect(0, 0, 400, 100), w: 1, h: 1, want: image.Rect(150, 0, 250, 100)},
		{bounds: image.Rect(0, 0, 100, 400), w: 1, h: 1, want: image.Rect(0, 150, 100, 250)},
		{bounds: image.Rect(0, 0, 800, 600), w: 4, h: 3, want: image.Rect(0, 0, 800, 600)},
		{bounds: image.Rect(0, 0, 800, 600), w: 397, h: 297, want: image.Rect(0, 1, 800, 599)},
	}
	for _, tt := range tests {
		if got := coverRect(tt.bounds, tt.w, tt.h); got != tt.want {
			t.Errorf("coverRect(%v, %d, %d) = %v, want %v", tt.bounds, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestPixelScaleCommand(t *testing.T) {
	if _, err := NewPixelScaleCommand(map[string]any{}); err == nil {
		t.Error("expected error when neither width nor height is set")
	}
	if _, err := NewPixelScaleCommand(map[string]any{"width": -1}); err == nil {
		t.Error("expected error for negative width")
	}
	if _, err := NewPixelScaleCommand(map[string]any{"width": 10, "interpolation": "cubic"}); err == nil {
		t.Error("expected error for unsupported interpolation")
	}

	tests := []struct {
		name         string
		params       map[string]any
		wantW, wantH int
	}{
		{name: "width only", params: map[string]any{"width": 50}, wantW: 50, wantH: 25},
		{name: "height only", params: map[string]any{"height": 50}, wantW: 100, wantH: 50},
		{name: "both", params: map[string]any{"width": 30, "height": 30}, wantW: 30, wantH: 30},
		{name: "bilinear", params: map[string]any{"width": 20, "interpolation": "bilinear"}, wantW: 20, wantH: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := NewPixelScaleCommand(tt.params)
			if err != nil {
				t.Fatalf("NewPixelScaleCommand error: %v", err)
			}
			out, err := command.Execute(pngBytes(t, 200, 100))
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			if w, h := pngSize(t, out); w != tt.wantW || h != tt.wantH {
				t.Fatalf("scaled size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailer_FitsCell(t *testing.T) {
	thumbnailer, err := NewThumbnailer(200, nil)
	if err != nil {
		t.Fatalf("NewThumbnailer error: %v", err)
	}

	out, err := thumbnailer.Thumbnail(jpegBytes(t, 800, 600), 397, 297)
	if err != nil {
		t.Fatalf("Thumbnail error: %v", err)
	}
	if w, h := pngSize(t, out); w != 200 || h != 149 {
		t.Fatalf("thumbnail size = %dx%d, want 200x149", w, h)
	}

	out, err = thumbnailer.Thumbnail(pngBytes(t, 300, 300), 80, 40)
	if err != nil {
		t.Fatalf("Thumbnail error: %v", err)
	}
	if w, h := pngSize(t, out); w != 80 || h != 40 {
		t.Fatalf("thumbnail size = %dx%d, want 80x40", w, h)
	}

	if _, err := thumbnailer.Thumbnail(pngBytes(t, 10, 10), 0, 10); err == nil {
		t.Fatal("expected error for empty cell")
	}
}

func TestNewThumbnailer_RejectsUnknownExtraCommand(t *testing.T) {
	if _, err := NewThumbnailer(0, []CommandConfig{{Name: "DitherCommand"}}); err == nil {
		t.Fatal("expected error for unknown extra command")
	}
}
