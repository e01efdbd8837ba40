package analyzer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/yolo-auditor/internal/utils"
)

// ImageAnalyzer checks that dataset images are readable and usable
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "tiff", "bmp", "webp", "gif"},
			MinImageSize:     32,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// Config returns the analyzer's configuration
func (a *ImageAnalyzer) Config() Config {
	return a.config
}

// ImageCheck is the outcome of inspecting one image file.
type ImageCheck struct {
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
	Size    string `json:"size"`
	Problem string `json:"problem,omitempty"`
}

// OK reports whether no problem was found.
func (c ImageCheck) OK() bool {
	return c.Problem == ""
}

// InspectFile decodes the image header at path and validates format and size.
// Only the header is read; pixel data is not decoded.
func (a *ImageAnalyzer) InspectFile(path string) ImageCheck {
	check := ImageCheck{Path: path}

	f, err := os.Open(path)
	if err != nil {
		check.Problem = fmt.Sprintf("failed to open image file: %v", err)
		return check
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		check.Size = utils.FormatFileSize(info.Size())
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		check.Problem = fmt.Sprintf("failed to decode image: %v", err)
		return check
	}
	check.Width, check.Height, check.Format = cfg.Width, cfg.Height, format

	if !a.isFormatSupported(format) {
		check.Problem = fmt.Sprintf("unsupported image format: %s", format)
		return check
	}
	if err := a.ValidateDimensions(cfg.Width, cfg.Height); err != nil {
		check.Problem = err.Error()
	}
	return check
}

// InspectDir inspects every file in dir whose extension is in exts.
// A missing directory yields no checks and the listing error.
func (a *ImageAnalyzer) InspectDir(dir string, exts utils.ExtSet) ([]ImageCheck, error) {
	names, err := utils.ListFiles(dir, exts)
	if err != nil {
		return nil, err
	}
	checks := make([]ImageCheck, 0, len(names))
	for _, n := range names {
		checks = append(checks, a.InspectFile(filepath.Join(dir, n)))
	}
	return checks, nil
}

// Problems filters checks down to the failing ones.
func Problems(checks []ImageCheck) []ImageCheck {
	var out []ImageCheck
	for _, c := range checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateDimensions checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateDimensions(width, height int) error {
	if width < a.config.MinImageSize || height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			width, height, a.config.MinImageSize)
	}
	return nil
}
