// Package config loads and saves the emgctl configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
)

const DefaultConfigFile = "emgctl.json"

// Hand drivers.
const (
	DriverROHand = "rohand"
	DriverServo  = "servo"
)

// Config holds the emgctl configuration
type Config struct {
	Glove       GloveConfig       `json:"glove"`
	Hand        HandConfig        `json:"hand"`
	Calibration CalibrationConfig `json:"calibration"`
	Telemetry   TelemetryConfig   `json:"telemetry"`
}

// GloveConfig holds configuration for the sample source
type GloveConfig struct {
	Port               string             `json:"port"`
	BaudRate           int                `json:"baud_rate"`
	Channels           glove.ChannelMap   `json:"channels"`
	Stream             glove.StreamConfig `json:"stream"`
	DefaultCalibration glove.Calibration  `json:"default_calibration"`
}

// HandConfig holds configuration for the actuator
type HandConfig struct {
	Driver   string                           `json:"driver"`
	Port     string                           `json:"port"`
	BaudRate int                              `json:"baud_rate"`
	NodeID   byte                             `json:"node_id"`
	Servos   [hand.NumFingers]hand.ServoRange `json:"servos"`
}

// CalibrationConfig holds the guided calibration settings
type CalibrationConfig struct {
	BatchesPerPhase int `json:"batches_per_phase"`
}

// TelemetryConfig holds the MQTT settings. An empty broker disables telemetry.
type TelemetryConfig struct {
	Broker   string `json:"broker,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// Enabled returns true if a broker is configured
func (t *TelemetryConfig) Enabled() bool {
	return t.Broker != ""
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Glove: GloveConfig{
			BaudRate:           glove.DefaultGloveBaudRate,
			Channels:           glove.IdentityChannelMap,
			Stream:             glove.DefaultStreamConfig,
			DefaultCalibration: glove.DefaultCalibration,
		},
		Hand: HandConfig{
			Driver:   DriverROHand,
			Port:     "/dev/ttyUSB0",
			BaudRate: hand.DefaultROHandBaudRate,
			NodeID:   hand.DefaultROHandNodeID,
		},
		Calibration: CalibrationConfig{
			BatchesPerPhase: glove.DefaultBatchesPerPhase,
		},
		Telemetry: TelemetryConfig{
			ClientID: "emgctl",
			Topic:    "emgctl/positions",
		},
	}
}

// Validate checks the settings that cannot be corrected later
func (c *Config) Validate() error {
	var errs []error
	if err := c.Glove.Stream.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("glove stream: %w", err))
	}
	if err := c.Glove.DefaultCalibration.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("glove default calibration: %w", err))
	}
	switch c.Hand.Driver {
	case DriverROHand:
		if c.Hand.NodeID == 0 {
			errs = append(errs, errors.New("hand node_id must be set"))
		}
	case DriverServo:
		for i, s := range c.Hand.Servos {
			if s.ID == 0 {
				errs = append(errs, fmt.Errorf("hand servo for %s has no id", hand.Finger(i)))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown hand driver %q", c.Hand.Driver))
	}
	if c.Calibration.BatchesPerPhase <= 0 {
		errs = append(errs, fmt.Errorf("invalid batches_per_phase %d", c.Calibration.BatchesPerPhase))
	}
	return errors.Join(errs...)
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom loads configuration from a specific file. Missing fields keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Exists returns true if the default config file exists
func Exists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
