package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix  = "EVIDARK"
	envDirKey  = "EVIDARK_CONFIG_DIR"
	appDirName = "evidark"
	fileName   = "config.yaml"
)

// Load resolves the per-user config file, creating it with defaults on first
// run, and layers EVIDARK_* environment variables over it.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := Default()

	path, err := resolveConfigPath(explicitPath)
	if err != nil {
		return cfg, "", err
	}

	created, err := ensureConfigFile(path, cfg)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("path", path).Msg("could not create default config")
	case created:
		logger.Info().Str("path", path).Msg("created default config")
	}

	v := viper.New()
	if err := setDefaults(v, cfg); err != nil {
		return cfg, path, err
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, path, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

// resolveConfigPath picks the explicit path, then $EVIDARK_CONFIG_DIR, then
// the user config directory. The working directory is never used.
func resolveConfigPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	if dir := os.Getenv(envDirKey); dir != "" {
		return filepath.Join(dir, fileName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir (set %s or --config): %w", envDirKey, err)
	}
	return filepath.Join(base, appDirName, fileName), nil
}

// setDefaults registers every key of cfg, named by its yaml tag, so env
// variables resolve for keys missing from the file.
func setDefaults(v *viper.Viper, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(raw, &defaults); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return nil
}

// ensureConfigFile writes cfg to path unless a file already exists there.
// The directory is private to the user; the file holds no secrets but sits
// next to the token database.
func ensureConfigFile(path string, cfg Config) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}
