package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

func sampleReport() types.DatasetReport {
	return types.DatasetReport{
		Root:      "/data/ds",
		Subpaths:  []string{"images/train", "images/val", "labels/train", "labels/val"},
		Structure: map[string]types.PathStatus{
			"images/train": {Exists: true, FileCount: 3},
			"images/val":   {Exists: true, FileCount: 2},
			"labels/train": {Exists: true, FileCount: 2},
		},
		Splits: []types.SplitReport{
			{
				Split: "train", ImagesCount: 3, LabelsCount: 2, BothCount: 2, ImageOnlyCount: 1,
				LabeledImageCount: 2, TotalAnnotations: 4, ClassCounts: map[int]int{0: 3, 2: 1},
				Pairing: types.Pairing{Both: []string{"a", "b"}, ImageOnly: []string{"c"}, LabelOnly: []string{}},
				LineErrors: []types.FileLineErrors{{
					Path:   "labels/train/b.txt",
					Errors: []types.LineError{{Line: 2, Raw: "0 0.1 0.2", Reason: "expected 5 fields, got 3"}},
				}},
			},
			{
				Split: "val", ImagesCount: 2, ImageOnlyCount: 2,
				Pairing: types.Pairing{Both: []string{}, ImageOnly: []string{"x", "y"}, LabelOnly: []string{}, Missing: []string{"/data/ds/labels/val"}},
			},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport(), 1); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"✅ images/train: 3 files",
		"✅ labels/train: 2 files",
		"❌ labels/val: missing",
		"TRAIN split:",
		"Objects per labeled image: 2.00",
		"Objects per labeled image: N/A",
		"Objects per class: 0=3 2=1",
		"labels/train/b.txt:2: expected 5 fields, got 3",
		"missing directory: /data/ds/labels/val",
		"    - x\n    ... and 1 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if strings.Index(out, "images/val") > strings.Index(out, "labels/train") {
		t.Error("structure lines should follow subpath order")
	}
}

func TestWriteStructure_Unreadable(t *testing.T) {
	var buf bytes.Buffer
	WriteStructure(&buf, []string{"images/train", "labels/train"}, map[string]types.PathStatus{
		"images/train": {Exists: true, Err: "permission denied"},
		"labels/train": {Err: "not a directory"},
	})
	out := buf.String()
	if !strings.Contains(out, "images/train: unreadable (permission denied)") || !strings.Contains(out, "❌ labels/train: not a directory") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteSpotCheck(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSpotCheck(&buf, "train", []types.SpotCheckResult{
		{Stem: "a", Annotations: 2, OverlayPath: "out/train/a_overlay.png", Review: &types.ReviewResult{Verdict: "suspect", Confidence: 0.5}},
		{Stem: "c", Err: "no label file"},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2 samples", "a: 2 objects -> out/train/a_overlay.png [review: suspect 0.50]", "c: 0 objects (no label file)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	var back types.DatasetReport
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if back.Splits[0].ClassCounts[0] != 3 || !strings.Contains(buf.String(), "\n  ") {
		t.Error("unexpected JSON output")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteText_Error(t *testing.T) {
	if err := WriteText(failingWriter{}, sampleReport(), 0); err == nil {
		t.Error("expected write error")
	}
}

func TestPreviewLimit(t *testing.T) {
	for in, want := range map[int]int{-1: DefaultPreviewLimit, 0: DefaultPreviewLimit, 1: 1, 12: 12} {
		if got := PreviewLimit(in); got != want {
			t.Errorf("PreviewLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestWriteText_DuplicateLabels(t *testing.T) {
	r := sampleReport()
	r.Splits[0].DuplicateLabels = []string{"labels/train/a.txt"}

	var buf bytes.Buffer
	if err := WriteText(&buf, r, 0); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "duplicate label files (skipped): 1\n    - labels/train/a.txt") {
		t.Errorf("duplicates not reported:\n%s", buf.String())
	}
}
