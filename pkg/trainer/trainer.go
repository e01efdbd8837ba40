// Package trainer describes the external detector-training collaborator.
//
// The auditor never depends on this package: training consumes a validated
// dataset configuration document and returns the run's final metrics.
package trainer

import (
	"context"
	"fmt"
	"strings"
)

// Trainer trains a detector on a dataset and reports validation metrics.
type Trainer interface {
	Train(ctx context.Context, data DatasetRef, hp Hyperparameters) (*Result, error)
}

// DatasetRef points the trainer at a dataset configuration document.
type DatasetRef struct {
	ConfigPath     string            `json:"config_path"`
	NumClasses     int               `json:"num_classes"`
	Names          []string          `json:"names"`
	SplitImageDirs map[string]string `json:"split_image_dirs"`
}

// Hyperparameters for one training run.
type Hyperparameters struct {
	Model     string  `json:"model"`
	Epochs    int     `json:"epochs"`
	Batch     int     `json:"batch"`
	ImageSize int     `json:"image_size"`
	Patience  int     `json:"patience"`
	Device    string  `json:"device"`
	Workers   int     `json:"workers"`
	Scale     float64 `json:"scale"`
	Mosaic    float64 `json:"mosaic"`
	Mixup     float64 `json:"mixup"`
	CopyPaste float64 `json:"copy_paste"`
	Project   string  `json:"project"`
	Name      string  `json:"name"`
	ExistOK   bool    `json:"exist_ok"`
}

// Metrics are the validation metrics from the last training epoch.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	MAP50     float64 `json:"map50"`
	MAP50_95  float64 `json:"map50_95"`
}

// Result describes a finished run.
type Result struct {
	RunDir  string  `json:"run_dir"`
	Weights string  `json:"weights"`
	Epochs  int     `json:"epochs"`
	Metrics Metrics `json:"metrics"`
}

// Validate checks the dataset reference.
func (d DatasetRef) Validate() error {
	if strings.TrimSpace(d.ConfigPath) == "" {
		return fmt.Errorf("dataset config path is required")
	}
	if d.NumClasses <= 0 {
		return fmt.Errorf("number of classes must be positive")
	}
	if len(d.Names) != 0 && len(d.Names) != d.NumClasses {
		return fmt.Errorf("%d class names given for %d classes", len(d.Names), d.NumClasses)
	}
	return nil
}

// Validate checks hyperparameter ranges before a run is launched.
func (h Hyperparameters) Validate() error {
	if strings.TrimSpace(h.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if h.Epochs < 1 {
		return fmt.Errorf("epochs must be positive")
	}
	if h.Batch < 1 && h.Batch != -1 {
		return fmt.Errorf("batch must be positive or -1 for auto")
	}
	if h.ImageSize < 32 || h.ImageSize%32 != 0 {
		return fmt.Errorf("image size must be a positive multiple of 32, got %d", h.ImageSize)
	}
	if h.Patience < 0 {
		return fmt.Errorf("patience must not be negative")
	}
	if h.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	for name, v := range map[string]float64{"scale": h.Scale, "mosaic": h.Mosaic, "mixup": h.Mixup, "copy_paste": h.CopyPaste} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %g", name, v)
		}
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("run name is required")
	}
	return nil
}
