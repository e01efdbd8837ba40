package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/yolo-auditor/internal/config"
	"github.com/menta2k/yolo-auditor/internal/utils"
	"github.com/menta2k/yolo-auditor/pkg/client"
	"github.com/menta2k/yolo-auditor/pkg/llamacpp"
	"github.com/menta2k/yolo-auditor/pkg/ollama"
	"github.com/menta2k/yolo-auditor/pkg/spotcheck"
)

// splitList splits a comma separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	return utils.FileExists(path)
}

// dataYAMLPath resolves training.data_yaml against the dataset root.
func dataYAMLPath(cfg *config.Config) string {
	p := cfg.Training.DataYAML
	if p == "" {
		p = "data.yaml"
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Dataset.Root, p)
}

func spotcheckClean(outputDir, split string) error {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		return nil
	}
	return spotcheck.Clean(outputDir, split)
}

// newVisionClient creates the review client for backend.
func newVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", backend)
	}
}
