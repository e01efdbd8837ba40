// Package report renders audit results for people (text) and tools (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// DefaultPreviewLimit bounds every listing when no limit is given.
const DefaultPreviewLimit = 5

// PreviewLimit resolves a configured listing limit. Zero or negative selects
// DefaultPreviewLimit.
func PreviewLimit(n int) int {
	if n <= 0 {
		return DefaultPreviewLimit
	}
	return n
}

// WriteText writes a human-readable dataset report. previewLimit bounds the
// mismatch and line-error listings and is resolved with PreviewLimit.
func WriteText(w io.Writer, r types.DatasetReport, previewLimit int) error {
	previewLimit = PreviewLimit(previewLimit)
	tw := &textWriter{w: w}

	tw.printf("📁 Dataset structure: %s\n", r.Root)
	WriteStructure(tw, r.Subpaths, r.Structure)

	for _, s := range r.Splits {
		tw.printf("\n")
		writeSplit(tw, s, previewLimit)
	}
	return tw.err
}

// WriteStructure writes one line per required subpath in the given order.
func WriteStructure(w io.Writer, subpaths []string, status map[string]types.PathStatus) {
	for _, p := range subpaths {
		st := status[p]
		switch {
		case st.Exists && st.Err != "":
			fmt.Fprintf(w, "⚠️  %s: unreadable (%s)\n", p, st.Err)
		case st.Exists:
			fmt.Fprintf(w, "✅ %s: %d files\n", p, st.FileCount)
		case st.Err != "":
			fmt.Fprintf(w, "❌ %s: %s\n", p, st.Err)
		default:
			fmt.Fprintf(w, "❌ %s: missing\n", p)
		}
	}
}

func writeSplit(tw *textWriter, s types.SplitReport, limit int) {
	tw.printf("%s split:\n", strings.ToUpper(s.Split))
	tw.printf("  Images: %d\n", s.ImagesCount)
	tw.printf("  Labels: %d\n", s.LabelsCount)
	tw.printf("  Paired: %d\n", s.BothCount)
	tw.printf("  Labeled images: %d\n", s.LabeledImageCount)
	tw.printf("  Total objects: %d\n", s.TotalAnnotations)
	if avg, ok := s.AveragePerLabeled(); ok {
		tw.printf("  Objects per labeled image: %.2f\n", avg)
	} else {
		tw.printf("  Objects per labeled image: N/A\n")
	}

	for _, dir := range s.Pairing.Missing {
		tw.printf("  ❌ missing directory: %s\n", dir)
	}
	if s.ImageOnlyCount > 0 {
		tw.printf("  Images without labels: %d\n", s.ImageOnlyCount)
		writeList(tw, s.Pairing.ImageOnly, limit)
	}
	if s.LabelOnlyCount > 0 {
		tw.printf("  Labels without images: %d\n", s.LabelOnlyCount)
		writeList(tw, s.Pairing.LabelOnly, limit)
	}

	if len(s.ClassCounts) > 0 {
		classes := make([]int, 0, len(s.ClassCounts))
		for c := range s.ClassCounts {
			classes = append(classes, c)
		}
		sort.Ints(classes)
		parts := make([]string, 0, len(classes))
		for _, c := range classes {
			parts = append(parts, fmt.Sprintf("%d=%d", c, s.ClassCounts[c]))
		}
		tw.printf("  Objects per class: %s\n", strings.Join(parts, " "))
	}
	if s.OutOfRange > 0 {
		tw.printf("  ⚠️  boxes outside [0,1]: %d\n", s.OutOfRange)
	}

	if len(s.LineErrors) > 0 {
		total := 0
		for _, f := range s.LineErrors {
			total += len(f.Errors)
		}
		tw.printf("  ⚠️  malformed lines: %d in %d files\n", total, len(s.LineErrors))
		shown := 0
	files:
		for _, f := range s.LineErrors {
			for _, e := range f.Errors {
				if shown == limit {
					break files
				}
				tw.printf("    %s:%d: %s (%q)\n", f.Path, e.Line, e.Reason, e.Raw)
				shown++
			}
		}
		if total > shown {
			tw.printf("    ... and %d more\n", total-shown)
		}
	}

	if len(s.Unreadable) > 0 {
		tw.printf("  ⚠️  unreadable label files: %d\n", len(s.Unreadable))
		for i, f := range s.Unreadable {
			if i == limit {
				tw.printf("    ... and %d more\n", len(s.Unreadable)-limit)
				break
			}
			tw.printf("    %s: %s\n", f.Path, f.Err)
		}
	}

	if len(s.DuplicateLabels) > 0 {
		tw.printf("  ⚠️  duplicate label files (skipped): %d\n", len(s.DuplicateLabels))
		writeList(tw, s.DuplicateLabels, limit)
	}
}

func writeList(tw *textWriter, items []string, limit int) {
	n := len(items)
	if n > limit {
		n = limit
	}
	for _, it := range items[:n] {
		tw.printf("    - %s\n", it)
	}
	if len(items) > n {
		tw.printf("    ... and %d more\n", len(items)-n)
	}
}

// WriteSpotCheck writes one line per spot-check sample.
func WriteSpotCheck(w io.Writer, split string, results []types.SpotCheckResult) error {
	tw := &textWriter{w: w}
	tw.printf("🔍 Spot check %s: %d samples\n", split, len(results))
	for _, r := range results {
		status := "✅"
		if r.Err != "" {
			status = "⚠️ "
		}
		tw.printf("%s %s: %d objects", status, r.Stem, r.Annotations)
		if r.OverlayPath != "" {
			tw.printf(" -> %s", r.OverlayPath)
		}
		if r.Review != nil {
			tw.printf(" [review: %s %.2f]", r.Review.Verdict, r.Review.Confidence)
		}
		if r.Err != "" {
			tw.printf(" (%s)", r.Err)
		}
		tw.printf("\n")
	}
	return tw.err
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// textWriter keeps the first write error so callers check once.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	n, err := t.w.Write(p)
	t.err = err
	return n, err
}
