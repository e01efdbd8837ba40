// Package datayaml reads and writes the dataset configuration document that
// YOLO trainers consume: dataset root, per-split image directories, class
// count and class names.
package datayaml

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassNames maps class index to name. It decodes from either a mapping
// ({0: a, 1: b}) or a sequence ([a, b]).
type ClassNames map[int]string

// UnmarshalYAML accepts both the mapping and the sequence form.
func (n *ClassNames) UnmarshalYAML(value *yaml.Node) error {
	out := ClassNames{}
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		for i, name := range list {
			out[i] = name
		}
	case yaml.MappingNode:
		var m map[int]string
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("names: %w", err)
		}
		for k, v := range m {
			out[k] = v
		}
	default:
		return fmt.Errorf("names: expected a mapping or a sequence at line %d", value.Line)
	}
	*n = out
	return nil
}

// Sorted returns the names ordered by class index.
func (n ClassNames) Sorted() []string {
	keys := make([]int, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, n[k])
	}
	return out
}

// DataConfig is the dataset configuration document.
type DataConfig struct {
	Path  string     `yaml:"path"`
	Train string     `yaml:"train"`
	Val   string     `yaml:"val"`
	Test  string     `yaml:"test,omitempty"`
	NC    int        `yaml:"nc"`
	Names ClassNames `yaml:"names"`
}

// FromClasses builds a document for root with split image directories given
// relative to root (images/<split>). Only train, val and test are recognized.
func FromClasses(root string, splits []string, classes []string) (*DataConfig, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dataset root: %w", err)
	}

	dc := &DataConfig{Path: abs, NC: len(classes), Names: ClassNames{}}
	for i, name := range classes {
		dc.Names[i] = name
	}
	for _, s := range splits {
		rel := filepath.ToSlash(filepath.Join("images", s))
		switch s {
		case "train":
			dc.Train = rel
		case "val":
			dc.Val = rel
		case "test":
			dc.Test = rel
		default:
			return nil, fmt.Errorf("split %q has no key in the dataset document (use train, val or test)", s)
		}
	}

	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Validate checks internal consistency: a root, train and val entries, and
// nc names indexed 0..nc-1.
func (d *DataConfig) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if d.Train == "" || d.Val == "" {
		return fmt.Errorf("both train and val are required")
	}
	if d.NC <= 0 {
		return fmt.Errorf("nc must be positive, got %d", d.NC)
	}
	if len(d.Names) != d.NC {
		return fmt.Errorf("nc is %d but %d names are given", d.NC, len(d.Names))
	}
	for i := 0; i < d.NC; i++ {
		name, ok := d.Names[i]
		if !ok {
			return fmt.Errorf("names: missing index %d", i)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("names: index %d is empty", i)
		}
	}
	return nil
}

// ImageDirs resolves each split's image directory against Path.
func (d *DataConfig) ImageDirs() map[string]string {
	out := map[string]string{}
	for split, p := range map[string]string{"train": d.Train, "val": d.Val, "test": d.Test} {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(d.Path, filepath.FromSlash(p))
		}
		out[split] = p
	}
	return out
}

// Marshal encodes the document with a two-space indent.
func (d *DataConfig) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# YOLO dataset configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode dataset config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write validates the document and writes it to path.
func (d *DataConfig) Write(path string) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid dataset config: %w", err)
	}
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset config: %w", err)
	}
	return nil
}

// Load reads and validates a dataset document.
func Load(path string) (*DataConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset config: %w", err)
	}
	var d DataConfig
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dataset config: %w", err)
	}
	if d.NC == 0 && len(d.Names) > 0 {
		d.NC = len(d.Names)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset config %s: %w", path, err)
	}
	return &d, nil
}
