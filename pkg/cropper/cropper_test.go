package cropper

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func TestNew(t *testing.T) {
	cropper := New()
	if cropper == nil {
		t.Fatal("New() returned nil")
	}
	if cropper.config.PaddingRatio != 0.15 {
		t.Errorf("Expected default padding 0.15, got %f", cropper.config.PaddingRatio)
	}
}

func TestCropObjects(t *testing.T) {
	c := NewWithConfig(CropConfig{})
	img := createTestImage(400, 200)
	anns := []types.Annotation{
		{Class: 1, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.25, H: 0.5}},
	}

	crops, skipped := c.CropObjects(img, anns)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped crops: %+v", skipped)
	}
	if len(crops) != 1 {
		t.Fatalf("expected 1 crop, got %d", len(crops))
	}

	got := crops[0]
	want := types.PixelRect{X1: 150, Y1: 50, X2: 250, Y2: 150}
	if got.Rect != want {
		t.Errorf("Rect = %+v, want %+v", got.Rect, want)
	}
	if b := got.Image.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("crop size %dx%d, want 100x100", b.Dx(), b.Dy())
	}
	if got.Class != 1 || got.Index != 0 {
		t.Errorf("unexpected crop metadata %+v", got)
	}
}

func TestCropObjects_PaddingAndClamp(t *testing.T) {
	c := NewWithConfig(CropConfig{PaddingRatio: 0.5})
	img := createTestImage(100, 100)
	anns := []types.Annotation{
		{Class: 0, Box: types.Box{CX: 0.1, CY: 0.1, W: 0.2, H: 0.2}},
	}

	crops, _ := c.CropObjects(img, anns)
	if len(crops) != 1 {
		t.Fatalf("expected 1 crop, got %d", len(crops))
	}
	// padded to 0.4 wide around 0.1 -> [-0.1, 0.3], clamped to [0, 30]
	want := types.PixelRect{X1: 0, Y1: 0, X2: 30, Y2: 30}
	if crops[0].Rect != want {
		t.Errorf("Rect = %+v, want %+v", crops[0].Rect, want)
	}
}

func TestCropObjects_SkipsOutside(t *testing.T) {
	c := New()
	img := createTestImage(100, 100)
	anns := []types.Annotation{
		{Class: 0, Box: types.Box{CX: 2, CY: 2, W: 0.1, H: 0.1}},
		{Class: 1, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}},
	}

	crops, skipped := c.CropObjects(img, anns)
	if len(skipped) != 1 || skipped[0].Index != 0 {
		t.Errorf("expected first annotation skipped, got %+v", skipped)
	}
	if len(crops) != 1 || crops[0].Index != 1 {
		t.Fatalf("expected second annotation cropped, got %+v", crops)
	}
}

func TestCropObjects_Resize(t *testing.T) {
	img := createTestImage(1000, 1000)
	anns := []types.Annotation{
		{Class: 0, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.8, H: 0.4}},
		{Class: 0, Box: types.Box{CX: 0.5, CY: 0.5, W: 0.02, H: 0.01}},
	}

	crops, _ := NewWithConfig(CropConfig{MaxSide: 200, MinSide: 60}).CropObjects(img, anns)
	if len(crops) != 2 {
		t.Fatalf("expected 2 crops, got %d", len(crops))
	}
	if b := crops[0].Image.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("large crop resized to %dx%d, want 200x100", b.Dx(), b.Dy())
	}
	if b := crops[1].Image.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Errorf("small crop resized to %dx%d, want 60x30", b.Dx(), b.Dy())
	}
}
