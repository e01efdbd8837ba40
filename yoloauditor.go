// Package yoloauditor audits YOLO-format object detection datasets before
// they are handed to a trainer.
//
// A dataset root is expected to hold images/<split> and labels/<split> for
// each split. Every image <stem>.<ext> pairs with labels/<split>/<stem>.txt,
// one annotation per line: "class cx cy w h" with coordinates normalized to
// the image size.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//		"os"
//
//		yoloauditor "github.com/menta2k/yolo-auditor"
//		"github.com/menta2k/yolo-auditor/pkg/report"
//	)
//
//	func main() {
//		a := yoloauditor.New("/data/IDRiD_yolo", []string{"train", "val"}, ".jpg")
//		if err := report.WriteText(os.Stdout, a.Audit(), 5); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Dataset (pkg/dataset): structure check, pairing, label parsing, split summaries
// 2. Processing (pkg/processing): image loading and annotation overlays
// 3. Spot check (pkg/spotcheck): seeded sampling and overlay rendering
// 4. Dataset document (pkg/datayaml): the YAML file trainers read
// 5. Trainer (pkg/trainer): the external training collaborator
//
// The auditor only reads the dataset. Problems in the data are reported as
// report fields and never returned as errors.
package yoloauditor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/menta2k/yolo-auditor/internal/config"
	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/analyzer"
	"github.com/menta2k/yolo-auditor/pkg/cropper"
	"github.com/menta2k/yolo-auditor/pkg/dataset"
	"github.com/menta2k/yolo-auditor/pkg/datayaml"
	"github.com/menta2k/yolo-auditor/pkg/processing"
	"github.com/menta2k/yolo-auditor/pkg/review"
	"github.com/menta2k/yolo-auditor/pkg/spotcheck"
	"github.com/menta2k/yolo-auditor/pkg/trainer"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// Version of the auditor
const Version = "1.0.0"

// Auditor ties the dataset checks to one configuration.
type Auditor struct {
	cfg      *config.Config
	layout   dataset.Layout
	analyzer *analyzer.ImageAnalyzer
}

// New creates an Auditor for root with default settings.
func New(root string, splits []string, imageExts ...string) *Auditor {
	cfg := config.Default()
	cfg.Dataset.Root = root
	if len(splits) > 0 {
		cfg.Dataset.Splits = splits
	}
	if len(imageExts) > 0 {
		cfg.Dataset.ImageExtensions = imageExts
	}
	return newAuditor(cfg)
}

// NewFromConfig validates cfg and creates an Auditor from it.
func NewFromConfig(cfg *config.Config) (*Auditor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return newAuditor(cfg), nil
}

func newAuditor(cfg *config.Config) *Auditor {
	acfg := analyzer.New().Config()
	if cfg.Dataset.MinImageSize > 0 {
		acfg.MinImageSize = cfg.Dataset.MinImageSize
	}
	layout := dataset.Layout{
		Root:      cfg.Dataset.Root,
		Splits:    cfg.Dataset.Splits,
		ImageExts: utils.NewExtSet(cfg.Dataset.ImageExtensions...),
		Workers:   cfg.Dataset.Workers,
	}
	return &Auditor{
		cfg:      cfg,
		layout:   layout,
		analyzer: analyzer.NewWithConfig(acfg),
	}
}

// Config returns the configuration the Auditor was built with.
func (a *Auditor) Config() *config.Config {
	return a.cfg
}

// Structure reports the required images/<split> and labels/<split> folders.
func (a *Auditor) Structure() (subpaths []string, status map[string]types.PathStatus) {
	subpaths = dataset.RequiredSubpaths(a.layout.Splits)
	return subpaths, dataset.CheckStructure(a.layout.Root, subpaths)
}

// Pairs pairs the images and label files of one split.
func (a *Auditor) Pairs(split string) types.Pairing {
	return dataset.PairSamples(a.layout.ImagesDir(split), a.layout.LabelsDir(split), a.layout.ImageExts)
}

// Summarize summarizes one split.
func (a *Auditor) Summarize(split string) types.SplitReport {
	return dataset.SummarizeSplit(a.layout.ImagesDir(split), a.layout.LabelsDir(split), a.layout.ImageExts,
		dataset.SummaryOptions{Split: split, Workers: a.layout.Workers})
}

// Audit checks the structure and summarizes every configured split.
func (a *Auditor) Audit() types.DatasetReport {
	return dataset.Audit(a.layout)
}

// InspectImages decodes the header of every image in a split and returns
// the ones that are unreadable, of an unsupported format or too small.
func (a *Auditor) InspectImages(split string) ([]analyzer.ImageCheck, error) {
	checks, err := a.analyzer.InspectDir(a.layout.ImagesDir(split), a.layout.ImageExts)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s images: %w", split, err)
	}
	return analyzer.Problems(checks), nil
}

// ClassNames returns the configured class names by index.
func (a *Auditor) ClassNames() map[int]string {
	names := make(map[int]string, len(a.cfg.Classes))
	for i, n := range a.cfg.Classes {
		names[i] = n
	}
	return names
}

// SpotCheck renders overlays for a seeded sample of a split. reviewer may be nil.
func (a *Auditor) SpotCheck(ctx context.Context, split string, reviewer *review.Reviewer) ([]types.SpotCheckResult, error) {
	if err := a.cfg.ValidateSpotCheck(); err != nil {
		return nil, fmt.Errorf("invalid spot check configuration: %w", err)
	}
	sc := a.cfg.SpotCheck
	opts := spotcheck.Options{
		Split:     split,
		ImagesDir: a.layout.ImagesDir(split),
		LabelsDir: a.layout.LabelsDir(split),
		ImageExts: a.layout.ImageExts,
		Samples:   sc.Samples,
		Seed:      sc.Seed,
		OutputDir: sc.OutputDir,
		Format:    sc.Format,
		Quality:   sc.Quality,
		Lossless:  sc.Lossless,
		Style: processing.OverlayStyle{
			Stroke:     sc.Stroke,
			ShowLabels: sc.ShowLabels,
			ClassNames: a.ClassNames(),
		},
	}
	if sc.Crops {
		ccfg := cropper.New().Config()
		ccfg.PaddingRatio = sc.CropPadding
		opts.Cropper = cropper.NewWithConfig(ccfg)
	}
	if reviewer != nil {
		opts.Reviewer = reviewer
		opts.ReviewModel = a.cfg.Review.Model
		opts.SendSize = a.cfg.Review.SendSize
		opts.SendQuality = a.cfg.Review.SendQuality
	}
	return spotcheck.Run(ctx, opts)
}

// TestVision sends the first image of split to the review model with a plain
// description prompt and returns the model's answer. A spot check with review
// can run it first to confirm the model accepts images at all.
func (a *Auditor) TestVision(ctx context.Context, split string, reviewer *review.Reviewer) (string, error) {
	dir := a.layout.ImagesDir(split)
	names, err := utils.ListFiles(dir, a.layout.ImageExts)
	if err != nil {
		return "", fmt.Errorf("failed to list images: %w", err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no images in %s", dir)
	}

	proc := processing.NewProcessor()
	img, err := proc.LoadImage(filepath.Join(dir, names[0]))
	if err != nil {
		return "", err
	}
	b64, err := proc.PrepareImageForModel(img, "jpeg", a.cfg.Review.SendSize, a.cfg.Review.SendQuality)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", names[0], err)
	}
	return reviewer.TestVision(ctx, a.cfg.Review.Model, b64)
}

// DataConfig builds the dataset document from the configured classes.
func (a *Auditor) DataConfig() (*datayaml.DataConfig, error) {
	if err := a.cfg.ValidateClasses(); err != nil {
		return nil, err
	}
	return datayaml.FromClasses(a.layout.Root, a.layout.Splits, a.cfg.Classes)
}

// WriteDataYAML writes the dataset document to path.
func (a *Auditor) WriteDataYAML(path string) (*datayaml.DataConfig, error) {
	dc, err := a.DataConfig()
	if err != nil {
		return nil, err
	}
	if err := dc.Write(path); err != nil {
		return nil, err
	}
	return dc, nil
}

// Hyperparameters returns the configured training hyperparameters.
func (a *Auditor) Hyperparameters() trainer.Hyperparameters {
	t := a.cfg.Training
	return trainer.Hyperparameters{
		Model:     t.Model,
		Epochs:    t.Epochs,
		Batch:     t.Batch,
		ImageSize: t.ImageSize,
		Patience:  t.Patience,
		Device:    t.Device,
		Workers:   t.Workers,
		Scale:     t.Scale,
		Mosaic:    t.Mosaic,
		Mixup:     t.Mixup,
		CopyPaste: t.CopyPaste,
		Project:   t.Project,
		Name:      t.Name,
		ExistOK:   t.ExistOK,
	}
}

// DatasetRef loads the dataset document at path and describes it for a trainer.
func DatasetRef(path string) (trainer.DatasetRef, error) {
	dc, err := datayaml.Load(path)
	if err != nil {
		return trainer.DatasetRef{}, err
	}
	return trainer.DatasetRef{
		ConfigPath:     path,
		NumClasses:     dc.NC,
		Names:          dc.Names.Sorted(),
		SplitImageDirs: dc.ImageDirs(),
	}, nil
}

// Train hands the dataset document at dataYAML to t with the configured
// hyperparameters.
func (a *Auditor) Train(ctx context.Context, t trainer.Trainer, dataYAML string) (*trainer.Result, error) {
	ref, err := DatasetRef(dataYAML)
	if err != nil {
		return nil, err
	}
	return t.Train(ctx, ref, a.Hyperparameters())
}

// NormalizedBoxToPixelRect maps a normalized box onto an imgW x imgH image.
func NormalizedBoxToPixelRect(box types.Box, imgW, imgH int) types.PixelRect {
	return processing.NormalizedBoxToPixelRect(box, imgW, imgH)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
