// Package config holds the tool configuration. Paths and batch settings
// are explicit inputs: defaults in code, optionally overridden by a
// YAML file, never hardcoded at call sites.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds conversion settings.
type Config struct {
	// OutputDir receives extracted attachments and, by default, the PDF.
	OutputDir string `yaml:"output_dir"`
	// PDFDir receives rendered PDFs; empty means OutputDir.
	PDFDir string `yaml:"pdf_dir"`
	// ManifestPath locates the SQLite conversion manifest.
	ManifestPath string `yaml:"manifest_path"`
	// Workers is the batch worker pool size.
	Workers int `yaml:"workers"`
	// Overwrite re-converts files already present in the manifest.
	Overwrite bool `yaml:"overwrite"`
}

// Default returns the default configuration, with data under
// ~/.mail2pdf.
func Default() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".mail2pdf")

	return &Config{
		OutputDir:    "./output",
		ManifestPath: filepath.Join(dataDir, "manifest.db"),
		Workers:      runtime.NumCPU() * 2,
	}
}

// Load reads configuration from a YAML file, applied on top of the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate performs basic validation.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// ResolvedPDFDir returns the directory PDFs are written to.
func (c *Config) ResolvedPDFDir() string {
	if c.PDFDir != "" {
		return c.PDFDir
	}
	return c.OutputDir
}
