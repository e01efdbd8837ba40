package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Dataset   DatasetConfig   `json:"dataset"`
	Classes   []string        `json:"classes"`
	Report    ReportConfig    `json:"report"`
	SpotCheck SpotCheckConfig `json:"spot_check"`
	Review    ReviewConfig    `json:"review"`
	Training  TrainingConfig  `json:"training"`
}

// DatasetConfig locates the dataset and says which files count as images
type DatasetConfig struct {
	Root            string   `json:"root"`
	Splits          []string `json:"splits"`
	ImageExtensions []string `json:"image_extensions"`
	Workers         int      `json:"workers"`
	MinImageSize    int      `json:"min_image_size"`
}

// ReportConfig holds configuration for report output
type ReportConfig struct {
	Format string `json:"format"`
	// PreviewLimit bounds every stem and error listing; 0 means the
	// report package default.
	PreviewLimit int `json:"preview_limit"`
}

// SpotCheckConfig holds configuration for overlay spot checks
type SpotCheckConfig struct {
	Samples     int     `json:"samples"`
	Seed        int64   `json:"seed"`
	OutputDir   string  `json:"output_dir"`
	Format      string  `json:"format"`
	Quality     int     `json:"quality"`
	Lossless    bool    `json:"lossless"`
	Stroke      int     `json:"stroke"`
	ShowLabels  bool    `json:"show_labels"`
	Crops       bool    `json:"crops"`
	CropPadding float64 `json:"crop_padding"`
}

// ReviewConfig holds configuration for the optional vision model review
type ReviewConfig struct {
	Enabled     bool   `json:"enabled"`
	Backend     string `json:"backend"`
	URL         string `json:"url"`
	Model       string `json:"model"`
	SendSize    int    `json:"send_size"`
	SendQuality int    `json:"send_quality"`
}

// TrainingConfig holds the hyperparameters handed to the external trainer
type TrainingConfig struct {
	Executable string  `json:"executable"`
	DataYAML   string  `json:"data_yaml"`
	Model      string  `json:"model"`
	Epochs     int     `json:"epochs"`
	Batch      int     `json:"batch"`
	ImageSize  int     `json:"image_size"`
	Patience   int     `json:"patience"`
	Device     string  `json:"device"`
	Workers    int     `json:"workers"`
	Scale      float64 `json:"scale"`
	Mosaic     float64 `json:"mosaic"`
	Mixup      float64 `json:"mixup"`
	CopyPaste  float64 `json:"copy_paste"`
	Project    string  `json:"project"`
	Name       string  `json:"name"`
	ExistOK    bool    `json:"exist_ok"`
}

// Default returns a configuration with default values.
// Root and Classes are left empty: they describe a concrete dataset and must
// be supplied explicitly.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Splits:          []string{"train", "val"},
			ImageExtensions: []string{".jpg"},
			Workers:         0,
			MinImageSize:    32,
		},
		Report: ReportConfig{
			Format:       "text",
			PreviewLimit: 5,
		},
		SpotCheck: SpotCheckConfig{
			Samples:     5,
			Seed:        1,
			OutputDir:   "./spotcheck",
			Format:      "png",
			Quality:     92,
			Stroke:      2,
			ShowLabels:  true,
			CropPadding: 0.15,
		},
		Review: ReviewConfig{
			Backend:     "ollama",
			URL:         "http://localhost:11434",
			Model:       "qwen2.5vl",
			SendSize:    1536,
			SendQuality: 85,
		},
		Training: TrainingConfig{
			Executable: "yolo",
			DataYAML:   "data.yaml",
			Model:      "yolov12s.pt",
			Epochs:     100,
			Batch:      8,
			ImageSize:  640,
			Patience:   20,
			Device:     "cpu",
			Scale:      0.5,
			Mosaic:     1.0,
			Mixup:      0.0,
			CopyPaste:  0.1,
			Project:    "runs/detect",
			Name:       "train",
			ExistOK:    true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields absent from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings every command needs: dataset location, splits,
// image extensions and report options.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dataset.Root) == "" {
		return fmt.Errorf("dataset.root is required")
	}

	if len(c.Dataset.Splits) == 0 {
		return fmt.Errorf("dataset.splits cannot be empty")
	}
	seen := map[string]bool{}
	for _, s := range c.Dataset.Splits {
		if s == "" || strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
			return fmt.Errorf("dataset.splits: invalid split name %q", s)
		}
		if seen[s] {
			return fmt.Errorf("dataset.splits: duplicate split %q", s)
		}
		seen[s] = true
	}

	if len(c.Dataset.ImageExtensions) == 0 {
		return fmt.Errorf("dataset.image_extensions cannot be empty")
	}
	for _, e := range c.Dataset.ImageExtensions {
		if strings.Trim(strings.TrimSpace(e), ".") == "" {
			return fmt.Errorf("dataset.image_extensions: invalid extension %q", e)
		}
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(e), "."), "txt") {
			return fmt.Errorf("dataset.image_extensions: .txt is reserved for label files")
		}
	}

	if c.Dataset.Workers < 0 {
		return fmt.Errorf("dataset.workers must not be negative")
	}

	switch c.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("report.format must be text or json")
	}
	if c.Report.PreviewLimit < 0 {
		return fmt.Errorf("report.preview_limit must not be negative")
	}

	return nil
}

// ValidateClasses checks that class names are present, non-empty and unique.
func (c *Config) ValidateClasses() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classes cannot be empty")
	}
	seen := map[string]bool{}
	for i, name := range c.Classes {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("classes[%d] is empty", i)
		}
		if seen[name] {
			return fmt.Errorf("classes: duplicate name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// ValidateSpotCheck checks the spot check settings
func (c *Config) ValidateSpotCheck() error {
	s := c.SpotCheck
	if s.Samples < 1 {
		return fmt.Errorf("spot_check.samples must be positive")
	}
	switch strings.ToLower(s.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("spot_check.format must be png, jpg or webp")
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("spot_check.quality must be between 1 and 100")
	}
	if s.Stroke < 0 {
		return fmt.Errorf("spot_check.stroke must not be negative")
	}
	if s.CropPadding < 0 || s.CropPadding > 1 {
		return fmt.Errorf("spot_check.crop_padding must be between 0 and 1")
	}
	if c.Review.Enabled {
		switch c.Review.Backend {
		case "ollama", "llamacpp":
		default:
			return fmt.Errorf("review.backend must be ollama or llamacpp")
		}
		if c.Review.URL == "" || c.Review.Model == "" {
			return fmt.Errorf("review.url and review.model are required when review is enabled")
		}
		if c.Review.SendQuality < 1 || c.Review.SendQuality > 100 {
			return fmt.Errorf("review.send_quality must be between 1 and 100")
		}
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "yolo-auditor", "config.json")
}
