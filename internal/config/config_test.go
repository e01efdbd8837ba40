package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	c := Default()
	c.Dataset.Root = "/data/IDRiD_yolo"
	c.Classes = []string{"Microaneurysms", "Haemorrhages", "Hard Exudates", "Soft Exudates", "Optic Disc"}
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	if len(c.Dataset.Splits) != 2 || c.Dataset.Splits[0] != "train" || c.Dataset.Splits[1] != "val" {
		t.Errorf("unexpected default splits %v", c.Dataset.Splits)
	}
	if c.Dataset.Root != "" || len(c.Classes) != 0 {
		t.Error("dataset root and classes must not have defaults")
	}
	if err := c.Validate(); err == nil {
		t.Error("default config without a root should not validate")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no splits", func(c *Config) { c.Dataset.Splits = nil }, "splits cannot be empty"},
		{"nested split", func(c *Config) { c.Dataset.Splits = []string{"train/a"} }, "invalid split"},
		{"duplicate split", func(c *Config) { c.Dataset.Splits = []string{"val", "val"} }, "duplicate split"},
		{"no extensions", func(c *Config) { c.Dataset.ImageExtensions = nil }, "image_extensions cannot be empty"},
		{"dot extension", func(c *Config) { c.Dataset.ImageExtensions = []string{"."} }, "invalid extension"},
		{"txt extension", func(c *Config) { c.Dataset.ImageExtensions = []string{"TXT"} }, "reserved"},
		{"negative workers", func(c *Config) { c.Dataset.Workers = -1 }, "workers"},
		{"bad format", func(c *Config) { c.Report.Format = "xml" }, "report.format"},
		{"negative preview", func(c *Config) { c.Report.PreviewLimit = -1 }, "preview_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClasses(t *testing.T) {
	c := validConfig()
	if err := c.ValidateClasses(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	c.Classes = nil
	if err := c.ValidateClasses(); err == nil {
		t.Error("expected error for empty classes")
	}
	c.Classes = []string{"a", " "}
	if err := c.ValidateClasses(); err == nil {
		t.Error("expected error for blank class name")
	}
	c.Classes = []string{"a", "a"}
	if err := c.ValidateClasses(); err == nil {
		t.Error("expected error for duplicate class name")
	}
}

func TestValidateSpotCheck(t *testing.T) {
	c := validConfig()
	if err := c.ValidateSpotCheck(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.SpotCheck.Format = "bmp"
	if err := c.ValidateSpotCheck(); err == nil {
		t.Error("expected error for unsupported overlay format")
	}

	c = validConfig()
	c.Review.Enabled = true
	c.Review.Backend = "openai"
	if err := c.ValidateSpotCheck(); err == nil {
		t.Error("expected error for unknown review backend")
	}

	c = validConfig()
	c.Review.Enabled = true
	c.Review.Model = ""
	if err := c.ValidateSpotCheck(); err == nil {
		t.Error("expected error for review without model")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c := validConfig()
	c.Dataset.ImageExtensions = []string{".jpg", ".png", ".tif"}
	c.SpotCheck.Samples = 9

	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Dataset.Root != c.Dataset.Root || len(loaded.Dataset.ImageExtensions) != 3 ||
		loaded.SpotCheck.Samples != 9 || len(loaded.Classes) != 5 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"dataset":{"root":"/data"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if c.Dataset.Root != "/data" || c.Report.PreviewLimit != 5 || c.Training.ImageSize != 640 {
		t.Errorf("defaults not preserved: %+v", c)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestReviewSendQuality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"review":{"enabled":true,"send_quality":60}}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if c.Review.SendQuality != 60 {
		t.Errorf("SendQuality = %d, want 60", c.Review.SendQuality)
	}

	c.Review.SendQuality = 0
	if err := c.ValidateSpotCheck(); err == nil || !strings.Contains(err.Error(), "send_quality") {
		t.Errorf("expected send_quality error, got %v", err)
	}
}
