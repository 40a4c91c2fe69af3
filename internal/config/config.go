// Package config loads the tracklog tuning file. The JSON schema uses
// pointer fields so partial files are safe: anything omitted keeps its
// default via the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/waymark-data/tracklog/internal/track"
)

// Config is the root configuration for the trackd binary.
type Config struct {
	// Storage
	DatabasePath *string `json:"database_path,omitempty"`

	// Sensor
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`

	// Server
	Listen *string `json:"listen,omitempty"`

	// Ingestion
	Preset     *string `json:"preset,omitempty"`
	QueueDepth *int    `json:"queue_depth,omitempty"`

	// Validation overrides applied on top of the selected preset
	MaxHorizontalAccuracyM   *float64 `json:"max_horizontal_accuracy_m,omitempty"`
	MaxReasonableSpeedMps    *float64 `json:"max_reasonable_speed_mps,omitempty"`
	MaxDistanceJumpM         *float64 `json:"max_distance_jump_m,omitempty"`
	MinTimeBetweenFixes      *string  `json:"min_time_between_fixes,omitempty"` // duration string like "5s"
	MinDistanceBetweenFixesM *float64 `json:"min_distance_between_fixes_m,omitempty"`
	AdaptiveSampling         *bool    `json:"adaptive_sampling,omitempty"`
	SlowSpeedCutoffMps       *float64 `json:"slow_speed_cutoff_mps,omitempty"`
	Smoothing                *bool    `json:"smoothing,omitempty"`
	ProcessNoise             *float64 `json:"process_noise,omitempty"`
}

// Load reads and validates a config file. Missing path returns the empty
// config (all defaults).
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects values that would break the pipeline.
func (c *Config) Validate() error {
	if c.MaxHorizontalAccuracyM != nil && *c.MaxHorizontalAccuracyM <= 0 {
		return fmt.Errorf("max_horizontal_accuracy_m must be positive")
	}
	if c.MaxReasonableSpeedMps != nil && *c.MaxReasonableSpeedMps <= 0 {
		return fmt.Errorf("max_reasonable_speed_mps must be positive")
	}
	if c.MaxDistanceJumpM != nil && *c.MaxDistanceJumpM <= 0 {
		return fmt.Errorf("max_distance_jump_m must be positive")
	}
	if c.MinTimeBetweenFixes != nil {
		if _, err := time.ParseDuration(*c.MinTimeBetweenFixes); err != nil {
			return fmt.Errorf("min_time_between_fixes: %w", err)
		}
	}
	if c.MinDistanceBetweenFixesM != nil && *c.MinDistanceBetweenFixesM < 0 {
		return fmt.Errorf("min_distance_between_fixes_m must not be negative")
	}
	if c.QueueDepth != nil && *c.QueueDepth <= 0 {
		return fmt.Errorf("queue_depth must be positive")
	}
	if c.ProcessNoise != nil && *c.ProcessNoise <= 0 {
		return fmt.Errorf("process_noise must be positive")
	}
	return nil
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != nil {
		return *c.DatabasePath
	}
	return "tracklog.db"
}

func (c *Config) GetSerialPort() string {
	if c.SerialPort != nil {
		return *c.SerialPort
	}
	return ""
}

func (c *Config) GetBaudRate() int {
	if c.BaudRate != nil {
		return *c.BaudRate
	}
	return 9600
}

func (c *Config) GetListen() string {
	if c.Listen != nil {
		return *c.Listen
	}
	return ":8080"
}

func (c *Config) GetQueueDepth() int {
	if c.QueueDepth != nil {
		return *c.QueueDepth
	}
	return track.DefaultQueueDepth
}

// ValidationConfig resolves the preset named in the file and applies any
// field overrides on top of it.
func (c *Config) ValidationConfig() track.ValidationConfig {
	preset := "balanced"
	if c.Preset != nil {
		preset = *c.Preset
	}
	v := track.PresetByName(preset)

	if c.MaxHorizontalAccuracyM != nil {
		v.MaxHorizontalAccuracyM = *c.MaxHorizontalAccuracyM
	}
	if c.MaxReasonableSpeedMps != nil {
		v.MaxReasonableSpeedMps = *c.MaxReasonableSpeedMps
	}
	if c.MaxDistanceJumpM != nil {
		v.MaxDistanceJumpM = *c.MaxDistanceJumpM
	}
	if c.MinTimeBetweenFixes != nil {
		// Validate() already checked the duration parses.
		d, _ := time.ParseDuration(*c.MinTimeBetweenFixes)
		v.MinTimeBetweenFixes = d
	}
	if c.MinDistanceBetweenFixesM != nil {
		if *c.MinDistanceBetweenFixesM == 0 {
			v.MinDistanceBetweenFixesM = nil
		} else {
			d := *c.MinDistanceBetweenFixesM
			v.MinDistanceBetweenFixesM = &d
		}
	}
	if c.AdaptiveSampling != nil {
		v.AdaptiveSampling = *c.AdaptiveSampling
	}
	if c.SlowSpeedCutoffMps != nil {
		v.SlowSpeedCutoffMps = *c.SlowSpeedCutoffMps
	}
	if c.Smoothing != nil {
		v.Smoothing = *c.Smoothing
	}
	if c.ProcessNoise != nil {
		v.ProcessNoise = *c.ProcessNoise
	}

	return v
}
