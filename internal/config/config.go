// Package config loads and validates the YAML configuration shared by the
// rawstream-sender and rawstream-receiver demo daemons.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete daemon configuration.
type Config struct {
	InstanceID string         `yaml:"instance_id"`
	Network    NetworkConfig  `yaml:"network"`
	Frame      FrameConfig    `yaml:"frame"`
	Fragment   FragmentConfig `yaml:"fragment"`
	MQTT       MQTTConfig     `yaml:"mqtt"`
	HealthPort int            `yaml:"health_port"`
}

// NetworkConfig holds UDP endpoint settings. Exactly one of ListenAddr
// (receiver) or DialAddr (sender) is meaningful for a given daemon.
type NetworkConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	DialAddr   string `yaml:"dial_addr"`
}

// FrameConfig describes the synthetic sensor feed the sender generates.
type FrameConfig struct {
	Width        uint16 `yaml:"width"`
	Height       uint16 `yaml:"height"`
	SampleFormat string `yaml:"sample_format"` // "8bit", "10bit", "12bit", "14bit", "16bit"
	BayerPattern string `yaml:"bayer_pattern"` // "g1rg2b", "rg1bg2", "g1bg2r", "bg1rg2", "mono"
	FPS          int    `yaml:"fps"`
	FlowID       uint32 `yaml:"flow_id"`
}

// FragmentConfig mirrors fragment.Options for YAML round-tripping.
type FragmentConfig struct {
	MTUBytes         uint16  `yaml:"mtu_bytes"`
	LossPercent      float64 `yaml:"loss_percent"`
	DuplicatePercent float64 `yaml:"duplicate_percent"`
	ReorderWindow    uint32  `yaml:"reorder_window"`
}

// MQTTConfig configures the stats telemetry publisher.
type MQTTConfig struct {
	Broker     string          `yaml:"broker"`
	StatsTopic string          `yaml:"stats_topic"`
	QoS        map[string]byte `yaml:"qos"`
}

// Load reads and parses path, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rawstream/config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("rawstream/config: parse %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("rawstream/config: invalid %s: %w", path, err)
	}

	return &cfg, nil
}
