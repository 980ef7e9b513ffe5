// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"path/filepath"
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := audiocore.DefaultConfig().Validate(); err != nil {
		t.Fatalf("want DefaultConfig to validate, got %v", err)
	}
}

func TestConfigValidateRejectsZeroCeiling(t *testing.T) {
	cfg := audiocore.DefaultConfig()
	cfg.Audio.CeilingLinear = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("want rejection of zero ceiling")
	}
	var cfgErr *audiocore.ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Fatalf("want *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "audio.ceiling_linear" {
		t.Fatalf("want field audio.ceiling_linear named, got %q", cfgErr.Field)
	}
}

func asConfigError(err error, target **audiocore.ConfigError) bool {
	ce, ok := err.(*audiocore.ConfigError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

func TestSaveLoadConfigRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audiocore.yaml")

	cfg := audiocore.DefaultConfig()
	cfg.Resources.PoolCapacity = 64
	if err := audiocore.SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := audiocore.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Resources.PoolCapacity != 64 {
		t.Fatalf("want pool_capacity 64 round-tripped, got %d", got.Resources.PoolCapacity)
	}
}

func TestSaveConfigRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	cfg := audiocore.DefaultConfig()
	cfg.Resources.RingCapacity = -1
	if err := audiocore.SaveConfig(path, cfg); err == nil {
		t.Fatal("want SaveConfig to reject an invalid config before writing")
	}
}
