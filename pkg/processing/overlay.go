package processing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// OverlayStyle controls how annotations are drawn.
type OverlayStyle struct {
	// Stroke is the box outline width in pixels; 0 picks ~0.4% of the short side.
	Stroke int
	// ShowLabels draws the class caption above each box.
	ShowLabels bool
	// ClassNames maps class index to caption; missing entries render "Class N".
	ClassNames map[int]string
}

// Palette colors are assigned by class index, cycling.
var Palette = []color.NRGBA{
	{0, 255, 0, 255},   // green
	{255, 64, 64, 255}, // red
	{0, 170, 255, 255}, // blue
	{255, 204, 0, 255}, // gold
	{255, 0, 255, 255}, // magenta
	{0, 255, 255, 255}, // cyan
	{255, 128, 0, 255}, // orange
}

// ClassColor returns the palette color for a class index.
func ClassColor(class int) color.NRGBA {
	if class < 0 {
		class = -class
	}
	return Palette[class%len(Palette)]
}

// Caption returns the text drawn for a class.
func (s OverlayStyle) Caption(class int) string {
	if name, ok := s.ClassNames[class]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Class %d", class)
}

// DrawAnnotations returns a copy of img with every annotation outlined.
// It also returns the unclamped pixel rectangle of each annotation, in order.
// Drawing is clipped to the image.
func (p *Processor) DrawAnnotations(img image.Image, anns []types.Annotation, style OverlayStyle) (*image.NRGBA, []types.PixelRect) {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	stroke := style.Stroke
	if stroke <= 0 {
		stroke = int(math.Max(2, 0.004*float64(minInt(w, h))))
	}

	rects := make([]types.PixelRect, 0, len(anns))
	for _, a := range anns {
		r := NormalizedBoxToPixelRect(a.Box, w, h)
		rects = append(rects, r)

		c := ClassColor(a.Class)
		drawRect(nrgba, r, c, stroke)
		if style.ShowLabels {
			drawCaption(nrgba, r.X1, r.Y1, style.Caption(a.Class), c)
		}
	}

	return nrgba, rects
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func drawRect(img *image.NRGBA, r types.PixelRect, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := r.X1, r.Y1, r.X2, r.Y2
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

// drawCaption writes text on a filled background just above (x, y), or just
// below it when there is no room above.
func drawCaption(img *image.NRGBA, x, y int, text string, bg color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.NRGBA{0, 0, 0, 255}), Face: face}
	tw := d.MeasureString(text).Ceil()
	th := face.Height

	top := y - th - 2
	if top < 0 {
		top = y
	}
	if x < 0 {
		x = 0
	}
	box := image.Rect(x, top, x+tw+4, top+th+2).Intersect(img.Bounds())
	if box.Empty() {
		return
	}
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x+2, top+face.Ascent+1)
	d.DrawString(text)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
