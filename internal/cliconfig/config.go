package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIURL is the hosted Lago API.
const DefaultAPIURL = "https://api.getlago.com"

// Config holds CLI configuration for lagoship.
type Config struct {
	APIURL         string
	APIToken       string
	APITokenSecret string
	SecretKey      string

	AWSRegion   string
	AWSEndpoint string

	HTTPTimeout time.Duration
	BatchSize   int
	LogLevel    string

	SpoolDir      string
	StateDir      string
	DebounceDelay time.Duration
	RetryInitial  time.Duration
	RetryMax      time.Duration
	MaxAttempts   int
	Once          bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIURL:        DefaultAPIURL,
		SecretKey:     "LAGO_API_TOKEN",
		HTTPTimeout:   30 * time.Second,
		BatchSize:     100,
		LogLevel:      "info",
		DebounceDelay: 500 * time.Millisecond,
		RetryInitial:  time.Second,
		RetryMax:      time.Minute,
		MaxAttempts:   5,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api-url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api-url %q must be an absolute http(s) url", c.APIURL)
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")

	if c.APIToken == "" && c.APITokenSecret == "" {
		return errors.New("api-token or api-token-secret is required")
	}

	if c.BatchSize < 1 || c.BatchSize > 100 {
		return fmt.Errorf("batch size %d out of range 1..100", c.BatchSize)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if c.StateDir == "" {
		c.StateDir = c.SpoolDir
	}
	if c.RetryInitial <= 0 || c.RetryMax < c.RetryInitial {
		return errors.New("retry intervals must be positive with retry-max >= retry-initial")
	}

	return nil
}

// ValidateSpool checks the settings the watch command needs on top of Validate.
func (c *Config) ValidateSpool() error {
	if c.SpoolDir == "" {
		return errors.New("spool-dir is required")
	}
	if c.DebounceDelay < 0 {
		return errors.New("debounce must not be negative")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max-attempts must be at least 1")
	}
	return nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.APIToken != "" {
		c.APIToken = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setToken applies a layer's token source. The literal token and the secret
// reference are one setting: a layer naming either replaces both, and an
// explicit flag for either keeps the layer out entirely.
func (s *configSetter) setToken(token, secret string, cfg *Config) {
	if token == "" && secret == "" {
		return
	}
	if s.changed["api-token"] || s.changed["api-token-secret"] {
		return
	}
	cfg.APIToken = token
	cfg.APITokenSecret = secret
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
