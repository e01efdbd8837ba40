// Package dataset audits a YOLO-format detection dataset laid out as
// images/<split> and labels/<split> under a common root.
//
// Nothing in this package mutates the dataset and nothing is fatal: a
// missing directory, an unreadable file or a malformed label line is
// recorded in the returned report and processing continues.
package dataset

import (
	"os"
	"path/filepath"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// RequiredSubpaths returns images/<split> for every split followed by
// labels/<split> for every split, in the order the splits are given.
func RequiredSubpaths(splits []string) []string {
	out := make([]string, 0, 2*len(splits))
	for _, s := range splits {
		out = append(out, filepath.ToSlash(filepath.Join("images", s)))
	}
	for _, s := range splits {
		out = append(out, filepath.ToSlash(filepath.Join("labels", s)))
	}
	return out
}

// CheckStructure reports, for each subpath relative to root, whether it exists
// as a directory and how many entries it holds directly (non-recursive).
func CheckStructure(root string, subpaths []string) map[string]types.PathStatus {
	out := make(map[string]types.PathStatus, len(subpaths))
	for _, sp := range subpaths {
		out[sp] = checkDir(filepath.Join(root, filepath.FromSlash(sp)))
	}
	return out
}

func checkDir(path string) types.PathStatus {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.PathStatus{}
		}
		return types.PathStatus{Err: err.Error()}
	}
	if !info.IsDir() {
		return types.PathStatus{Err: "not a directory"}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return types.PathStatus{Exists: true, Err: err.Error()}
	}
	return types.PathStatus{Exists: true, FileCount: len(entries)}
}
