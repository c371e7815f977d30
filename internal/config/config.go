package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// StorageRoot is where all session artifacts live. It is threaded
	// explicitly into every pipeline entry point; nothing reads a fixed
	// global path.
	StorageRoot string `yaml:"storage_root"`

	Models    ModelsConfig    `yaml:"models"`
	Selection SelectionConfig `yaml:"selection"`
	Frames    FramesConfig    `yaml:"frames"`
	Describe  DescribeConfig  `yaml:"describe"`
}

// ModelsConfig names the completion models used at each stage.
type ModelsConfig struct {
	// Selection is a cheap text-only model for transcript analysis.
	Selection string `yaml:"selection"`
	// Description is the vision model for frame description batches.
	Description string `yaml:"description"`
	// Synthesis answers free-form questions against a session.
	Synthesis string `yaml:"synthesis"`
}

// SelectionConfig tunes the transcript-driven selectors.
type SelectionConfig struct {
	MaxFrames         int     `yaml:"max_frames"`
	MinFrameInterval  float64 `yaml:"min_frame_interval"`
	MaxSlides         int     `yaml:"max_slides"`
	MinSlideInterval  float64 `yaml:"min_slide_interval"`
	FallbackThreshold int     `yaml:"fallback_threshold"`
	FallbackInterval  float64 `yaml:"fallback_interval"`
}

// FramesConfig tunes frame extraction and the legacy scene-change path.
type FramesConfig struct {
	SceneThreshold float64 `yaml:"scene_threshold"`
	MinInterval    float64 `yaml:"min_interval"`
	MaxWidth       int     `yaml:"max_width"`
}

// DescribeConfig tunes the vision description stage.
type DescribeConfig struct {
	BatchSize        int     `yaml:"batch_size"`
	TranscriptWindow float64 `yaml:"transcript_window"`
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		StorageRoot: DefaultStorageRoot(),
		Models: ModelsConfig{
			Selection:   "claude-haiku-4-5",
			Description: "claude-sonnet-4-6",
			Synthesis:   "claude-opus-4-6",
		},
		Selection: SelectionConfig{
			MaxFrames:         25,
			MinFrameInterval:  5.0,
			MaxSlides:         15,
			MinSlideInterval:  10.0,
			FallbackThreshold: 15,
			FallbackInterval:  10.0,
		},
		Frames: FramesConfig{
			SceneThreshold: 0.1,
			MinInterval:    3.0,
			MaxWidth:       1280,
		},
		Describe: DescribeConfig{
			BatchSize:        8,
			TranscriptWindow: 15.0,
		},
	}
}

// DefaultStorageRoot returns ~/.vid2notes, falling back to a relative
// directory when the home directory cannot be determined.
func DefaultStorageRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vid2notes"
	}
	return filepath.Join(home, ".vid2notes")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultStorageRoot(), "config.yaml")
}

// Load reads config from file, returning defaults if the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes config to file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
