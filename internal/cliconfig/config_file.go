package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	APIURL         string `toml:"api_url"`
	APIToken       string `toml:"api_token"`
	APITokenSecret string `toml:"api_token_secret"`
	SecretKey      string `toml:"secret_key"`
	AWSRegion      string `toml:"aws_region"`
	AWSEndpoint    string `toml:"aws_endpoint"`
	HTTPTimeout    string `toml:"http_timeout"`
	BatchSize      int    `toml:"batch_size"`
	LogLevel       string `toml:"log_level"`
	SpoolDir       string `toml:"spool_dir"`
	StateDir       string `toml:"state_dir"`
	DebounceDelay  string `toml:"debounce"`
	RetryInitial   string `toml:"retry_initial"`
	RetryMax       string `toml:"retry_max"`
	MaxAttempts    int    `toml:"max_attempts"`
	Once           *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.lagoship/config.toml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".lagoship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setToken(fc.APIToken, fc.APITokenSecret, cfg)
	s.setString("secret-key", fc.SecretKey, &cfg.SecretKey)
	s.setString("aws-region", fc.AWSRegion, &cfg.AWSRegion)
	s.setString("aws-endpoint", fc.AWSEndpoint, &cfg.AWSEndpoint)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("spool-dir", fc.SpoolDir, &cfg.SpoolDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-initial", fc.RetryInitial, &cfg.RetryInitial); err != nil {
		return err
	}
	if err := s.setDuration("retry-max", fc.RetryMax, &cfg.RetryMax); err != nil {
		return err
	}

	s.setInt("batch-size", fc.BatchSize, &cfg.BatchSize)
	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
