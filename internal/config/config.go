// Package config loads bridge tuning from a JSON file. All fields are
// optional pointers so partial configs are safe: the Get* accessors fall
// back to defaults for anything the file omits.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/mocap.bridge/internal/manus"
)

// BridgeConfig is the root configuration. The host is a pre-selected value
// rather than an interactive prompt, so the bridge never depends on a
// terminal.
type BridgeConfig struct {
	// Connection
	Host                *string `json:"host,omitempty"`
	RetryIntervalMillis *int64  `json:"retry_interval_ms,omitempty"`
	MaxConnectAttempts  *int    `json:"max_connect_attempts,omitempty"` // 0 = retry forever
	HandMotion          *string `json:"hand_motion,omitempty"`          // "none", "imu" or "tracker"

	// Consumer
	BufferCapacity *int `json:"buffer_capacity,omitempty"` // FlatPoseRecord slots per poll

	// Simulated source
	SimGloves        *int     `json:"sim_gloves,omitempty"`
	SimNodesPerGlove *int     `json:"sim_nodes_per_glove,omitempty"`
	SimFrameRate     *float64 `json:"sim_frame_rate,omitempty"`
}

// Empty returns a BridgeConfig with all fields unset.
func Empty() *BridgeConfig {
	return &BridgeConfig{}
}

// Load reads a BridgeConfig from a JSON file. An empty path yields the
// defaults. The file must have a .json extension and stay under 1MB.
func Load(path string) (*BridgeConfig, error) {
	cfg := Empty()
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *BridgeConfig) GetHost() string {
	if c != nil && c.Host != nil {
		return *c.Host
	}
	return "localhost"
}

func (c *BridgeConfig) GetRetryInterval() time.Duration {
	if c != nil && c.RetryIntervalMillis != nil && *c.RetryIntervalMillis > 0 {
		return time.Duration(*c.RetryIntervalMillis) * time.Millisecond
	}
	return time.Second
}

func (c *BridgeConfig) GetMaxConnectAttempts() int {
	if c != nil && c.MaxConnectAttempts != nil && *c.MaxConnectAttempts >= 0 {
		return *c.MaxConnectAttempts
	}
	return 0
}

// GetHandMotion maps the configured mode name onto the source enum.
// Unrecognised names fall back to tracker, matching the reference client's
// default.
func (c *BridgeConfig) GetHandMotion() manus.HandMotion {
	if c != nil && c.HandMotion != nil {
		switch *c.HandMotion {
		case "none":
			return manus.HandMotionNone
		case "imu":
			return manus.HandMotionIMU
		}
	}
	return manus.HandMotionTracker
}

func (c *BridgeConfig) GetBufferCapacity() int {
	if c != nil && c.BufferCapacity != nil && *c.BufferCapacity > 0 {
		return *c.BufferCapacity
	}
	return 256
}

func (c *BridgeConfig) GetSimGloves() int {
	if c != nil && c.SimGloves != nil && *c.SimGloves > 0 {
		return *c.SimGloves
	}
	return 2
}

func (c *BridgeConfig) GetSimNodesPerGlove() int {
	if c != nil && c.SimNodesPerGlove != nil && *c.SimNodesPerGlove > 0 {
		return *c.SimNodesPerGlove
	}
	return 25
}

func (c *BridgeConfig) GetSimFrameRate() float64 {
	if c != nil && c.SimFrameRate != nil && *c.SimFrameRate > 0 {
		return *c.SimFrameRate
	}
	return 120
}
