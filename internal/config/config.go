// Package config loads optional JSON tuning for the replay loop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/vessel.report/internal/replay"
)

// ReplayConfig holds tunable playback parameters. All fields are
// pointers so a partial JSON file only overrides what it names; the
// Get* methods supply defaults for the rest.
type ReplayConfig struct {
	// Poll interval of the playback loop, duration string like "50ms".
	TickInterval *string `json:"tick_interval,omitempty"`

	// Heartbeat cadence in simulated seconds.
	HeartbeatSeconds *float64 `json:"heartbeat_seconds,omitempty"`

	// Suppress back-to-back duplicate sentences.
	Dedupe *bool `json:"dedupe,omitempty"`

	// Destination prefix for per-vessel subjects.
	SubjectPrefix *string `json:"subject_prefix,omitempty"`

	// Queue size of the UDP forwarder.
	ForwardBuffer *int `json:"forward_buffer,omitempty"`
}

// Empty returns a ReplayConfig with all fields unset.
func Empty() *ReplayConfig {
	return &ReplayConfig{}
}

// Load reads a ReplayConfig from a JSON file. Fields omitted from the
// file retain their defaults, so partial configs are safe.
func Load(path string) (*ReplayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every set field parses and is in range.
func (c *ReplayConfig) Validate() error {
	if c.TickInterval != nil {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return fmt.Errorf("tick_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}
	if c.HeartbeatSeconds != nil && *c.HeartbeatSeconds <= 0 {
		return fmt.Errorf("heartbeat_seconds must be positive, got %g", *c.HeartbeatSeconds)
	}
	if c.ForwardBuffer != nil && *c.ForwardBuffer <= 0 {
		return fmt.Errorf("forward_buffer must be positive, got %d", *c.ForwardBuffer)
	}
	return nil
}

// GetTickInterval returns the poll interval, defaulting to the player's
// standard tick. Validate must have accepted the config first.
func (c *ReplayConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil {
		return replay.DefaultTick
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return replay.DefaultTick
	}
	return d
}

// GetHeartbeat returns the heartbeat cadence in simulated time.
func (c *ReplayConfig) GetHeartbeat() time.Duration {
	if c.HeartbeatSeconds == nil {
		return replay.DefaultHeartbeat
	}
	return time.Duration(*c.HeartbeatSeconds * float64(time.Second))
}

// GetDedupe reports whether duplicate suppression is enabled.
func (c *ReplayConfig) GetDedupe() bool {
	return c.Dedupe != nil && *c.Dedupe
}

// GetSubjectPrefix returns the destination prefix.
func (c *ReplayConfig) GetSubjectPrefix() string {
	if c.SubjectPrefix == nil {
		return "ais"
	}
	return *c.SubjectPrefix
}

// GetForwardBuffer returns the UDP forward queue size.
func (c *ReplayConfig) GetForwardBuffer() int {
	if c.ForwardBuffer == nil {
		return 1000
	}
	return *c.ForwardBuffer
}
