// Package spotcheck renders annotation overlays for a random sample of a
// split's images so a person (or a vision model) can eyeball label quality.
package spotcheck

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/cropper"
	"github.com/menta2k/yolo-auditor/pkg/dataset"
	"github.com/menta2k/yolo-auditor/pkg/processing"
	"github.com/menta2k/yolo-auditor/pkg/review"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// Options configures a spot check of one split.
type Options struct {
	Split     string
	ImagesDir string
	LabelsDir string
	ImageExts utils.ExtSet

	Samples int
	Seed    int64

	OutputDir string
	Format    string
	Quality   int
	Lossless  bool
	Style     processing.OverlayStyle

	// Cropper, when set, also writes one crop per annotation.
	Cropper *cropper.ObjectCropper

	// Reviewer, when set, sends every overlay to ReviewModel.
	Reviewer    *review.Reviewer
	ReviewModel string
	SendSize    int
	SendQuality int

	Logger *log.Logger
}

// Sample returns min(n, len(stems)) stems chosen pseudo-randomly from the
// sorted input. The same stems and seed always give the same sample, which
// is returned sorted.
func Sample(stems []string, n int, seed int64) []string {
	if n <= 0 || len(stems) == 0 {
		return []string{}
	}
	pool := append([]string(nil), stems...)
	sort.Strings(pool)
	if n > len(pool) {
		n = len(pool)
	}

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := pool[:n]
	sort.Strings(out)
	return out
}

// Run samples images from the split and writes
// <OutputDir>/<Split>/<stem>_overlay.<Format> for each one. Per-sample
// failures are recorded on the result; only an unusable output directory
// or a cancelled context stops the run.
func Run(ctx context.Context, opts Options) ([]types.SpotCheckResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	names, err := utils.ListFiles(opts.ImagesDir, opts.ImageExts)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	byStem := map[string]string{}
	stems := make([]string, 0, len(names))
	for _, name := range names {
		stem := utils.Stem(name)
		if _, dup := byStem[stem]; dup {
			continue
		}
		byStem[stem] = name
		stems = append(stems, stem)
	}

	outDir := filepath.Join(opts.OutputDir, utils.SanitizeFilename(opts.Split))
	if err := utils.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	proc := processing.NewProcessor()
	sample := Sample(stems, opts.Samples, opts.Seed)
	results := make([]types.SpotCheckResult, 0, len(sample))
	for i, stem := range sample {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Printf("[%d/%d] %s", i+1, len(sample), byStem[stem])
		res := checkOne(ctx, proc, opts, outDir, stem, byStem[stem])
		if res.Err != "" {
			logger.Printf("  error: %s", res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func checkOne(ctx context.Context, proc *processing.Processor, opts Options, outDir, stem, name string) types.SpotCheckResult {
	res := types.SpotCheckResult{
		Stem:      stem,
		ImagePath: filepath.Join(opts.ImagesDir, name),
		LabelPath: filepath.Join(opts.LabelsDir, stem+dataset.LabelExt),
	}

	img, err := proc.LoadImage(res.ImagePath)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()

	lf := dataset.ParseLabelFile(res.LabelPath)
	res.HasLabel = lf.Exists
	switch {
	case !lf.Exists:
		res.Err = "no label file"
	case lf.Err != "":
		res.Err = lf.Err
	case len(lf.Errors) > 0:
		res.Err = fmt.Sprintf("%d malformed label lines", len(lf.Errors))
	}
	res.Annotations = len(lf.Annotations)

	overlay, rects := proc.DrawAnnotations(img, lf.Annotations, opts.Style)
	res.Rects = rects

	overlayPath := utils.GenerateOutputFilename(name, outDir, "", "_overlay", opts.Format)
	if err := proc.SaveImage(overlay, overlayPath, opts.Format, opts.Quality, opts.Lossless); err != nil {
		res.Err = joinErr(res.Err, err.Error())
		return res
	}
	res.OverlayPath = overlayPath

	if opts.Cropper != nil && len(lf.Annotations) > 0 {
		res.CropPaths = writeCrops(proc, opts, outDir, name, img, lf.Annotations, &res)
	}

	if opts.Reviewer != nil {
		b64, err := proc.PrepareImageForModel(overlay, "jpeg", opts.SendSize, opts.SendQuality)
		if err != nil {
			res.Err = joinErr(res.Err, err.Error())
			return res
		}
		rv := opts.Reviewer.Review(ctx, opts.ReviewModel, b64)
		res.Review = &rv
	}
	return res
}

func writeCrops(proc *processing.Processor, opts Options, outDir, name string, img image.Image, anns []types.Annotation, res *types.SpotCheckResult) []string {
	cropDir := filepath.Join(outDir, "crops")
	if err := utils.EnsureDir(cropDir); err != nil {
		res.Err = joinErr(res.Err, err.Error())
		return nil
	}

	crops, skipped := opts.Cropper.CropObjects(img, anns)
	var paths []string
	for _, c := range crops {
		suffix := fmt.Sprintf("_obj%02d_c%d", c.Index, c.Class)
		p := utils.GenerateOutputFilename(name, cropDir, "", suffix, opts.Format)
		if err := proc.SaveImage(c.Image, p, opts.Format, opts.Quality, opts.Lossless); err != nil {
			res.Err = joinErr(res.Err, err.Error())
			continue
		}
		paths = append(paths, p)
	}
	for _, s := range skipped {
		res.Err = joinErr(res.Err, fmt.Sprintf("object %d: %s", s.Index, s.Reason))
	}
	return paths
}

func joinErr(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

// Clean removes a previous spot check of split under outputDir.
func Clean(outputDir, split string) error {
	dir := filepath.Join(outputDir, utils.SanitizeFilename(split))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", dir, err)
	}
	return nil
}
