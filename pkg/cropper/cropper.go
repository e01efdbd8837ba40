package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// ObjectCropper cuts annotated objects out of an image for close inspection
type ObjectCropper struct {
	config CropConfig
}

// CropConfig holds configuration for object cropping
type CropConfig struct {
	// PaddingRatio grows each box by this fraction of its size on every side.
	PaddingRatio float64
	// MaxSide downsizes crops whose longer side exceeds it; 0 keeps original size.
	MaxSide int
	// MinSide enlarges crops whose longer side is below it so tiny lesions stay
	// visible; 0 disables upscaling.
	MinSide int
}

// New creates a new ObjectCropper with default configuration
func New() *ObjectCropper {
	return &ObjectCropper{
		config: CropConfig{
			PaddingRatio: 0.15,
			MaxSide:      512,
			MinSide:      96,
		},
	}
}

// NewWithConfig creates a new ObjectCropper with custom configuration
func NewWithConfig(config CropConfig) *ObjectCropper {
	return &ObjectCropper{config: config}
}

// Config returns the cropper's configuration
func (c *ObjectCropper) Config() CropConfig {
	return c.config
}

// ObjectCrop is one cropped annotation.
type ObjectCrop struct {
	Index int
	Class int
	Rect  types.PixelRect
	Image image.Image
}

// SkippedCrop records an annotation that could not be cropped.
type SkippedCrop struct {
	Index  int
	Reason string
}

// CropObjects crops every annotation. Boxes are padded, clamped to the image
// and skipped when nothing of them lies inside it.
func (c *ObjectCropper) CropObjects(img image.Image, anns []types.Annotation) ([]ObjectCrop, []SkippedCrop) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var crops []ObjectCrop
	var skipped []SkippedCrop
	for i, a := range anns {
		rect := c.paddedRect(a.Box, w, h)
		if rect.Empty() {
			skipped = append(skipped, SkippedCrop{
				Index:  i,
				Reason: fmt.Sprintf("box %+v lies outside the %dx%d image", a.Box, w, h),
			})
			continue
		}

		cropped := imaging.Crop(img, image.Rect(
			bounds.Min.X+rect.X1, bounds.Min.Y+rect.Y1,
			bounds.Min.X+rect.X2, bounds.Min.Y+rect.Y2,
		))
		crops = append(crops, ObjectCrop{
			Index: i,
			Class: a.Class,
			Rect:  rect,
			Image: c.resize(cropped),
		})
	}
	return crops, skipped
}

func (c *ObjectCropper) paddedRect(b types.Box, w, h int) types.PixelRect {
	pad := math.Max(c.config.PaddingRatio, 0)
	padded := types.Box{
		CX: b.CX,
		CY: b.CY,
		W:  b.W * (1 + 2*pad),
		H:  b.H * (1 + 2*pad),
	}
	return padded.ToPixelRect(w, h).Clamp(w, h)
}

func (c *ObjectCropper) resize(img *image.NRGBA) image.Image {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}

	switch {
	case c.config.MaxSide > 0 && long > c.config.MaxSide:
		return imaging.Fit(img, c.config.MaxSide, c.config.MaxSide, imaging.Lanczos)
	case c.config.MinSide > 0 && long < c.config.MinSide:
		scale := float64(c.config.MinSide) / float64(long)
		return imaging.Resize(img, int(math.Round(float64(b.Dx())*scale)), int(math.Round(float64(b.Dy())*scale)), imaging.NearestNeighbor)
	}
	return img
}
