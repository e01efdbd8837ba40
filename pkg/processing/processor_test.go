package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// createTestImage creates a uniform gray test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func sameColor(c color.Color, want color.NRGBA) bool {
	got := color.NRGBAModel.Convert(c).(color.NRGBA)
	return got == want
}

func TestNormalizedBoxToPixelRect(t *testing.T) {
	tests := []struct {
		name string
		box  types.Box
		w, h int
		want types.PixelRect
	}{
		{"centered half", types.Box{CX: 0.5, CY: 0.5, W: 0.5, H: 0.5}, 640, 480, types.PixelRect{X1: 160, Y1: 120, X2: 480, Y2: 360}},
		{"full image", types.Box{CX: 0.5, CY: 0.5, W: 1, H: 1}, 100, 50, types.PixelRect{X1: 0, Y1: 0, X2: 100, Y2: 50}},
		{"fractional pixels round to nearest", types.Box{CX: 0.5, CY: 0.5, W: 0.25, H: 0.25}, 10, 10, types.PixelRect{X1: 4, Y1: 4, X2: 6, Y2: 6}},
		{"out of range propagates", types.Box{CX: 1.0, CY: 0.0, W: 0.5, H: 0.5}, 640, 480, types.PixelRect{X1: 480, Y1: -120, X2: 800, Y2: 120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedBoxToPixelRect(tt.box, tt.w, tt.h); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPixelRectClamp(t *testing.T) {
	r := types.PixelRect{X1: -10, Y1: 20, X2: 700, Y2: 500}.Clamp(640, 480)
	want := types.PixelRect{X1: 0, Y1: 20, X2: 640, Y2: 480}
	if r != want {
		t.Errorf("Clamp = %+v, want %+v", r, want)
	}
	if !(types.PixelRect{X1: 5, Y1: 5, X2: 5, Y2: 10}).Empty() {
		t.Error("zero-width rect should be empty")
	}
}

func TestDrawAnnotations(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(640, 480)
	anns := []types.Annotation{
		{Class: 0, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.5, H: 0.5}},
	}

	out, rects := p.DrawAnnotations(img, anns, OverlayStyle{Stroke: 2})

	if len(rects) != 1 || rects[0] != (types.PixelRect{X1: 160, Y1: 120, X2: 480, Y2: 360}) {
		t.Fatalf("unexpected rects %+v", rects)
	}
	green := ClassColor(0)
	gray := color.NRGBA{128, 128, 128, 255}

	for _, pt := range []image.Point{{160, 200}, {161, 200}, {479, 200}, {300, 120}, {300, 359}} {
		if !sameColor(out.At(pt.X, pt.Y), green) {
			t.Errorf("pixel %v should be on the outline", pt)
		}
	}
	for _, pt := range []image.Point{{162, 200}, {300, 300}, {10, 10}} {
		if !sameColor(out.At(pt.X, pt.Y), gray) {
			t.Errorf("pixel %v should be untouched", pt)
		}
	}

	// source image must not be modified
	if !sameColor(img.At(160, 200), gray) {
		t.Error("DrawAnnotations modified its input")
	}
}

func TestDrawAnnotations_Caption(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(200, 200)
	anns := []types.Annotation{{Class: 2, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.5, H: 0.5}}}

	out, _ := p.DrawAnnotations(img, anns, OverlayStyle{Stroke: 1, ShowLabels: true})

	// caption background sits right above the box's top-left corner
	if !sameColor(out.At(51, 36), ClassColor(2)) {
		t.Errorf("expected caption background at (51,36), got %v", out.At(51, 36))
	}
}

func TestDrawAnnotations_OutOfBoundsDoesNotPanic(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(50, 50)
	anns := []types.Annotation{
		{Class: 1, Box: types.Box{CX: 1.2, CY: -0.3, W: 0.8, H: 0.8}},
		{Class: 9, Box: types.Box{CX: 5, CY: 5, W: 0.1, H: 0.1}},
	}

	out, rects := p.DrawAnnotations(img, anns, OverlayStyle{ShowLabels: true})
	if out.Bounds().Dx() != 50 || len(rects) != 2 {
		t.Fatalf("unexpected output: %v, %d rects", out.Bounds(), len(rects))
	}
	if rects[1].X1 < 50 {
		t.Errorf("expected unclamped rect beyond image, got %+v", rects[1])
	}
}

func TestOverlayStyleCaption(t *testing.T) {
	s := OverlayStyle{ClassNames: map[int]string{0: "Microaneurysms"}}
	if got := s.Caption(0); got != "Microaneurysms" {
		t.Errorf("Caption(0) = %q", got)
	}
	if got := s.Caption(4); got != "Class 4" {
		t.Errorf("Caption(4) = %q", got)
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(40, 30)

	for _, format := range []string{"png", "jpg", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			if err := p.SaveImage(img, path, format, 90, format == "webp"); err != nil {
				t.Fatalf("SaveImage failed: %v", err)
			}
			loaded, err := p.LoadImage(path)
			if err != nil {
				t.Fatalf("LoadImage failed: %v", err)
			}
			if b := loaded.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("loaded size %dx%d, want 40x30", b.Dx(), b.Dy())
			}
		})
	}

	if err := p.SaveImage(img, filepath.Join(dir, "x.gif"), "gif", 90, false); err == nil {
		t.Error("expected error for unsupported output format")
	}
}

func TestLoadImage_TIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundus.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(f, createTestImage(24, 16), nil); err != nil {
		f.Close()
		t.Fatalf("tiff encode failed: %v", err)
	}
	f.Close()

	img, err := NewProcessor().LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Errorf("size %dx%d, want 24x16", b.Dx(), b.Dy())
	}
}

func TestLoadImage_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewProcessor().LoadImage(path); err == nil {
		t.Error("expected error for undecodable file")
	}
	if _, err := NewProcessor().LoadImage(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	b64, err := p.PrepareImageForModel(createTestImage(400, 200), "jpg", 100, 80)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("resized to %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}
