package types

import "math"

// Box represents a normalized YOLO bounding box: center and size as fractions
// of the image width and height.
type Box struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// PixelRect is an integer rectangle in image pixel space.
// (X1, Y1) is the top-left corner, (X2, Y2) the bottom-right corner.
type PixelRect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// ToPixelRect converts the box to pixel coordinates for an image of the given size.
// No clamping is applied: boxes that leave [0,1] produce out-of-bounds rectangles.
func (b Box) ToPixelRect(imgW, imgH int) PixelRect {
	w, h := float64(imgW), float64(imgH)
	return PixelRect{
		X1: int(math.Round((b.CX - b.W/2) * w)),
		Y1: int(math.Round((b.CY - b.H/2) * h)),
		X2: int(math.Round((b.CX + b.W/2) * w)),
		Y2: int(math.Round((b.CY + b.H/2) * h)),
	}
}

// OutOfRange reports whether any coordinate lies outside [0,1].
func (b Box) OutOfRange() bool {
	for _, v := range [...]float64{b.CX, b.CY, b.W, b.H} {
		if v < 0 || v > 1 {
			return true
		}
	}
	return false
}

// Clamp limits the rectangle to [0,w]x[0,h].
func (r PixelRect) Clamp(w, h int) PixelRect {
	return PixelRect{
		X1: clampInt(r.X1, 0, w),
		Y1: clampInt(r.Y1, 0, h),
		X2: clampInt(r.X2, 0, w),
		Y2: clampInt(r.Y2, 0, h),
	}
}

// Empty reports whether the rectangle has no area.
func (r PixelRect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Annotation is one bounding-box record from a label file line.
type Annotation struct {
	Class int `json:"class"`
	Box   Box `json:"box"`
	Line  int `json:"line"`
}

// LineError describes a label-file line that could not be parsed.
type LineError struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// LabelFile is the parsed content of one label file.
type LabelFile struct {
	Path        string       `json:"path"`
	Exists      bool         `json:"exists"`
	Annotations []Annotation `json:"annotations"`
	Errors      []LineError  `json:"errors,omitempty"`
	Err         string       `json:"err,omitempty"`
}

// PathStatus is the result of checking one required dataset subpath.
type PathStatus struct {
	Exists    bool   `json:"exists"`
	FileCount int    `json:"file_count"`
	Err       string `json:"err,omitempty"`
}

// Pairing partitions sample stems by which side (images, labels) they appear on.
// All slices are sorted lexicographically.
type Pairing struct {
	Both      []string `json:"both"`
	ImageOnly []string `json:"image_only"`
	LabelOnly []string `json:"label_only"`
	Images    int      `json:"images"`
	Labels    int      `json:"labels"`
	Missing   []string `json:"missing,omitempty"`
}

// FileError reports a label file that listing found but reading failed on.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"err"`
}

// FileLineErrors groups the line errors of one label file.
type FileLineErrors struct {
	Path   string      `json:"path"`
	Errors []LineError `json:"errors"`
}

// SplitReport summarizes one dataset split.
type SplitReport struct {
	Split             string           `json:"split"`
	ImagesDir         string           `json:"images_dir"`
	LabelsDir         string           `json:"labels_dir"`
	ImagesCount       int              `json:"images_count"`
	LabelsCount       int              `json:"labels_count"`
	BothCount         int              `json:"both_count"`
	ImageOnlyCount    int              `json:"image_only_count"`
	LabelOnlyCount    int              `json:"label_only_count"`
	LabeledImageCount int              `json:"labeled_image_count"`
	TotalAnnotations  int              `json:"total_annotations"`
	OutOfRange        int              `json:"out_of_range"`
	ClassCounts       map[int]int      `json:"class_counts,omitempty"`
	Pairing           Pairing          `json:"pairing"`
	LineErrors        []FileLineErrors `json:"line_errors,omitempty"`
	Unreadable        []FileError      `json:"unreadable,omitempty"`
	// DuplicateLabels lists label files skipped because an earlier file in
	// sorted order has the same stem (a.txt and a.TXT).
	DuplicateLabels   []string         `json:"duplicate_labels,omitempty"`
}

// AveragePerLabeled returns the mean annotation count over labeled images.
// ok is false when no image is labeled.
func (r SplitReport) AveragePerLabeled() (avg float64, ok bool) {
	if r.LabeledImageCount == 0 {
		return 0, false
	}
	return float64(r.TotalAnnotations) / float64(r.LabeledImageCount), true
}

// DatasetReport is the full audit of a dataset root.
type DatasetReport struct {
	Root      string                `json:"root"`
	Subpaths  []string              `json:"subpaths"`
	Structure map[string]PathStatus `json:"structure"`
	Splits    []SplitReport         `json:"splits"`
}

// ReviewResult is a vision model's opinion of a spot-check overlay.
type ReviewResult struct {
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Notes      string   `json:"notes"`
	Issues     []string `json:"issues"`
}

// SpotCheckResult describes one sampled image of a spot check.
type SpotCheckResult struct {
	Stem        string        `json:"stem"`
	ImagePath   string        `json:"image_path"`
	LabelPath   string        `json:"label_path"`
	HasLabel    bool          `json:"has_label"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Annotations int           `json:"annotations"`
	Rects       []PixelRect   `json:"rects,omitempty"`
	OverlayPath string        `json:"overlay_path,omitempty"`
	CropPaths   []string      `json:"crop_paths,omitempty"`
	Review      *ReviewResult `json:"review,omitempty"`
	Err         string        `json:"err,omitempty"`
}
