package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/romanconv/romanconv/internal/util"
	"sigs.k8s.io/yaml"
)

const appName = "romanconv"

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(util.MustString(os.UserHomeDir), "."+appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// EnsureConfigDir creates the directory holding cfgFile.
func EnsureConfigDir(cfgFile string) error {
	if err := os.MkdirAll(filepath.Dir(cfgFile), os.FileMode(0755)); err != nil {
		return fmt.Errorf("creating directory for config file: %w", err)
	}
	return nil
}

// SaveConfig writes cfg to cfgFile as YAML.
func SaveConfig(cfg any, cfgFile string) error {
	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(cfgFile, contents, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
