package dataset

import (
	"path/filepath"

	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// Layout locates a dataset and says how to read it.
type Layout struct {
	Root      string
	Splits    []string
	ImageExts utils.ExtSet
	Workers   int
}

// ImagesDir returns root/images/<split>.
func (l Layout) ImagesDir(split string) string {
	return filepath.Join(l.Root, "images", split)
}

// LabelsDir returns root/labels/<split>.
func (l Layout) LabelsDir(split string) string {
	return filepath.Join(l.Root, "labels", split)
}

// Audit checks the directory layout and summarizes every split.
// Splits whose directories are missing still get a (zero) report.
func Audit(layout Layout) types.DatasetReport {
	subpaths := RequiredSubpaths(layout.Splits)
	report := types.DatasetReport{
		Root:      layout.Root,
		Subpaths:  subpaths,
		Structure: CheckStructure(layout.Root, subpaths),
		Splits:    make([]types.SplitReport, 0, len(layout.Splits)),
	}

	for _, split := range layout.Splits {
		report.Splits = append(report.Splits, SummarizeSplit(
			layout.ImagesDir(split),
			layout.LabelsDir(split),
			layout.ImageExts,
			SummaryOptions{Split: split, Workers: layout.Workers},
		))
	}

	return report
}
