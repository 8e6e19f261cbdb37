package config

import (
	"fmt"
	"regexp"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks cfg for required fields and applies defaults for
// everything with a sane one.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Network.ListenAddr == "" && cfg.Network.DialAddr == "" {
		return fmt.Errorf("network.listen_addr or network.dial_addr is required")
	}

	if cfg.Frame.Width == 0 || cfg.Frame.Height == 0 {
		return fmt.Errorf("frame.width and frame.height must be > 0")
	}
	if cfg.Frame.FPS <= 0 {
		cfg.Frame.FPS = 30
	}
	if _, err := SampleFormatFromString(cfg.Frame.SampleFormat); err != nil {
		return fmt.Errorf("frame.sample_format: %w", err)
	}
	if _, err := BayerPatternFromString(cfg.Frame.BayerPattern); err != nil {
		return fmt.Errorf("frame.bayer_pattern: %w", err)
	}

	if cfg.Fragment.MTUBytes == 0 {
		cfg.Fragment.MTUBytes = 1400
	}
	if cfg.Fragment.LossPercent < 0 || cfg.Fragment.LossPercent > 100 {
		return fmt.Errorf("fragment.loss_percent must be in [0, 100]")
	}
	if cfg.Fragment.DuplicatePercent < 0 || cfg.Fragment.DuplicatePercent > 100 {
		return fmt.Errorf("fragment.duplicate_percent must be in [0, 100]")
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.StatsTopic == "" {
			cfg.MQTT.StatsTopic = fmt.Sprintf("rawstream/%s/stats", cfg.InstanceID)
		}
		if cfg.MQTT.QoS == nil {
			cfg.MQTT.QoS = map[string]byte{"stats": 0}
		}
	}

	if cfg.HealthPort == 0 {
		cfg.HealthPort = 8090
	}

	return nil
}

// SampleFormatFromString maps a config string onto a wire.SampleFormat.
func SampleFormatFromString(s string) (wire.SampleFormat, error) {
	switch s {
	case "8bit", "":
		return wire.SampleFormat8Bit, nil
	case "10bit":
		return wire.SampleFormat10Bit, nil
	case "12bit":
		return wire.SampleFormat12Bit, nil
	case "14bit":
		return wire.SampleFormat14Bit, nil
	case "16bit":
		return wire.SampleFormat16Bit, nil
	default:
		return 0, fmt.Errorf("unknown sample format %q", s)
	}
}

// BayerPatternFromString maps a config string onto a wire.BayerPattern.
func BayerPatternFromString(s string) (wire.BayerPattern, error) {
	switch s {
	case "g1rg2b", "":
		return wire.BayerG1RG2B, nil
	case "rg1bg2":
		return wire.BayerRG1BG2, nil
	case "g1bg2r":
		return wire.BayerG1BG2R, nil
	case "bg1rg2":
		return wire.BayerBG1RG2, nil
	case "mono":
		return wire.BayerMono, nil
	default:
		return 0, fmt.Errorf("unknown bayer pattern %q", s)
	}
}
