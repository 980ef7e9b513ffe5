// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the persisted, four-section configuration record: audio
// thresholds, security toggles, resource limits, and monitoring
// toggles. It is stored as YAML with 0600 permissions on POSIX hosts.
type Config struct {
	Audio      AudioThresholds  `yaml:"audio"`
	Security   SecurityConfig   `yaml:"security"`
	Resources  ResourceLimits   `yaml:"resources"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// AudioThresholds holds the limiter/health thresholds a stream is
// constructed with.
type AudioThresholds struct {
	CeilingLinear               float64 `yaml:"ceiling_linear"`
	HearingProtectionThreshold   float64 `yaml:"hearing_protection_threshold"`
	LookaheadSamples             int     `yaml:"lookahead_samples"`
	TruePeakCeiling              float64 `yaml:"true_peak_ceiling"`
}

// SecurityConfig gates the file-validator collaborator.
type SecurityConfig struct {
	SandboxRoot       string   `yaml:"sandbox_root"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes"`
}

// ResourceLimits bounds pool/ring sizing.
type ResourceLimits struct {
	PoolCapacity  int `yaml:"pool_capacity"`
	RingCapacity  int `yaml:"ring_capacity"`
	MaxBlockSize  int `yaml:"max_block_size"`
}

// MonitoringConfig toggles and sizes telemetry retention.
type MonitoringConfig struct {
	Enabled            bool `yaml:"enabled"`
	TelemetryHistorySize int `yaml:"telemetry_history_size"`
}

// DefaultConfig returns a Config populated with the spec's documented
// defaults.
func DefaultConfig() Config {
	return Config{
		Audio: AudioThresholds{
			CeilingLinear:              1.0,
			HearingProtectionThreshold: defaultHearingProtection,
			LookaheadSamples:           defaultLookaheadSamples,
			TruePeakCeiling:            defaultTruePeakCeiling,
		},
		Security: SecurityConfig{
			AllowedExtensions: []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"},
			MaxFileSizeBytes:  500 * 1024 * 1024,
		},
		Resources: ResourceLimits{
			PoolCapacity: 32,
			RingCapacity: 8192,
			MaxBlockSize: 4096,
		},
		Monitoring: MonitoringConfig{
			Enabled:              true,
			TelemetryHistorySize: defaultTelemetryHistory,
		},
	}
}

// Validate rejects out-of-range values, returning a *ConfigError naming
// the offending field.
func (c Config) Validate() error {
	if c.Audio.CeilingLinear <= 0 {
		return newConfigError("audio.ceiling_linear", c.Audio.CeilingLinear, ErrConfigUnsupported)
	}
	if c.Audio.TruePeakCeiling <= 0 {
		return newConfigError("audio.true_peak_ceiling", c.Audio.TruePeakCeiling, ErrConfigUnsupported)
	}
	if c.Audio.LookaheadSamples <= 0 {
		return newConfigError("audio.lookahead_samples", c.Audio.LookaheadSamples, ErrConfigUnsupported)
	}
	if c.Security.MaxFileSizeBytes <= 0 {
		return newConfigError("security.max_file_size_bytes", c.Security.MaxFileSizeBytes, ErrConfigUnsupported)
	}
	if c.Resources.PoolCapacity <= 0 {
		return newConfigError("resources.pool_capacity", c.Resources.PoolCapacity, ErrConfigUnsupported)
	}
	if c.Resources.RingCapacity <= 0 {
		return newConfigError("resources.ring_capacity", c.Resources.RingCapacity, ErrConfigUnsupported)
	}
	if c.Resources.MaxBlockSize <= 0 {
		return newConfigError("resources.max_block_size", c.Resources.MaxBlockSize, ErrConfigUnsupported)
	}
	if c.Monitoring.TelemetryHistorySize <= 0 {
		return newConfigError("monitoring.telemetry_history_size", c.Monitoring.TelemetryHistorySize, ErrConfigUnsupported)
	}
	return nil
}

// LoadConfig reads and validates a YAML config file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// SaveConfig validates and writes cfg as YAML to path, creating it with
// 0600 permissions on POSIX hosts (the permission bits are best-effort
// on platforms where os.OpenFile ignores them, matching Go's own
// documented behavior). A file that already exists keeps its
// permission bits.
func SaveConfig(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
