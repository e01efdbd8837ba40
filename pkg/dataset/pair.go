package dataset

import (
	"os"
	"sort"

	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

// LabelExt is the extension of YOLO label files.
const LabelExt = ".txt"

var labelExts = utils.NewExtSet(LabelExt)

// PairSamples matches image stems in imagesDir against label stems in labelsDir.
//
// Only regular files directly inside each directory are considered. Image files
// must carry an extension from imageExts and label files the .txt extension,
// both compared case-insensitively. A missing directory contributes no stems and
// is listed in Pairing.Missing.
func PairSamples(imagesDir, labelsDir string, imageExts utils.ExtSet) types.Pairing {
	var p types.Pairing

	images, err := stemSet(imagesDir, imageExts)
	if err != nil {
		p.Missing = append(p.Missing, imagesDir)
	}
	labels, err := stemSet(labelsDir, labelExts)
	if err != nil {
		p.Missing = append(p.Missing, labelsDir)
	}

	p.Images = len(images)
	p.Labels = len(labels)
	p.Both = []string{}
	p.ImageOnly = []string{}
	p.LabelOnly = []string{}

	for stem := range images {
		if _, ok := labels[stem]; ok {
			p.Both = append(p.Both, stem)
		} else {
			p.ImageOnly = append(p.ImageOnly, stem)
		}
	}
	for stem := range labels {
		if _, ok := images[stem]; !ok {
			p.LabelOnly = append(p.LabelOnly, stem)
		}
	}

	sort.Strings(p.Both)
	sort.Strings(p.ImageOnly)
	sort.Strings(p.LabelOnly)
	return p
}

// Preview returns at most n stems from each mismatch list, in sorted order.
func Preview(p types.Pairing, n int) (imageOnly, labelOnly []string) {
	return head(p.ImageOnly, n), head(p.LabelOnly, n)
}

func head(s []string, n int) []string {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// stemSet lists regular files in dir matching exts and returns their stems.
// Two files sharing a stem (a.jpg and a.png) count once.
func stemSet(dir string, exts utils.ExtSet) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return map[string]struct{}{}, err
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() || !exts.Match(e.Name()) {
			continue
		}
		out[utils.Stem(e.Name())] = struct{}{}
	}
	return out, nil
}
