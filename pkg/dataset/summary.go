package dataset

import (
	"path/filepath"
	"runtime"
	"sync"

	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// SummaryOptions tunes SummarizeSplit.
type SummaryOptions struct {
	// Split is copied into the report for display.
	Split string
	// Workers bounds the number of label files parsed concurrently.
	// Zero or negative means runtime.NumCPU().
	Workers int
}

// SummarizeSplit pairs images with labels and parses one label file per stem
// found in labelsDir, producing counts and collected anomalies for one split.
// Further files sharing a stem are listed in DuplicateLabels and not parsed.
func SummarizeSplit(imagesDir, labelsDir string, imageExts utils.ExtSet, opts SummaryOptions) types.SplitReport {
	pairing := PairSamples(imagesDir, labelsDir, imageExts)

	r := types.SplitReport{
		Split:          opts.Split,
		ImagesDir:      imagesDir,
		LabelsDir:      labelsDir,
		ImagesCount:    pairing.Images,
		LabelsCount:    pairing.Labels,
		BothCount:      len(pairing.Both),
		ImageOnlyCount: len(pairing.ImageOnly),
		LabelOnlyCount: len(pairing.LabelOnly),
		ClassCounts:    map[int]int{},
		Pairing:        pairing,
	}

	names, err := utils.ListFiles(labelsDir, labelExts)
	if err != nil {
		return r
	}

	seen := make(map[string]struct{}, len(names))
	paths := make([]string, 0, len(names))
	for _, n := range names {
		stem := utils.Stem(n)
		if _, dup := seen[stem]; dup {
			r.DuplicateLabels = append(r.DuplicateLabels, filepath.Join(labelsDir, n))
			continue
		}
		seen[stem] = struct{}{}
		paths = append(paths, filepath.Join(labelsDir, n))
	}

	for _, lf := range parseAll(paths, opts.Workers) {
		if lf.Err != "" {
			r.Unreadable = append(r.Unreadable, types.FileError{Path: lf.Path, Err: lf.Err})
		}
		if len(lf.Errors) > 0 {
			r.LineErrors = append(r.LineErrors, types.FileLineErrors{Path: lf.Path, Errors: lf.Errors})
		}
		if len(lf.Annotations) > 0 {
			r.LabeledImageCount++
		}
		r.TotalAnnotations += len(lf.Annotations)
		for _, a := range lf.Annotations {
			r.ClassCounts[a.Class]++
			if a.Box.OutOfRange() {
				r.OutOfRange++
			}
		}
	}

	return r
}

// parseAll parses paths with at most workers goroutines. Results keep the
// order of paths.
func parseAll(paths []string, workers int) []types.LabelFile {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	out := make([]types.LabelFile, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = ParseLabelFile(paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}
