package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %v, want %v", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %v, want 100", cfg.BatchSize)
	}
	if cfg.SecretKey != "LAGO_API_TOKEN" {
		t.Errorf("SecretKey = %v, want LAGO_API_TOKEN", cfg.SecretKey)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.APIToken = "token"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantErr    bool
		wantAPIURL string
	}{
		{
			name:       "defaults with token",
			mutate:     func(c *Config) {},
			wantAPIURL: DefaultAPIURL,
		},
		{
			name:   "secret instead of token",
			mutate: func(c *Config) { c.APIToken = ""; c.APITokenSecret = "arn:aws:secretsmanager:x" },
		},
		{
			name:    "no token source",
			mutate:  func(c *Config) { c.APIToken = "" },
			wantErr: true,
		},
		{
			name:    "missing api url",
			mutate:  func(c *Config) { c.APIURL = "" },
			wantErr: true,
		},
		{
			name:    "relative api url",
			mutate:  func(c *Config) { c.APIURL = "lago.internal" },
			wantErr: true,
		},
		{
			name:       "trailing slash trimmed",
			mutate:     func(c *Config) { c.APIURL = "http://localhost:3000/" },
			wantAPIURL: "http://localhost:3000",
		},
		{
			name:    "batch size too large",
			mutate:  func(c *Config) { c.BatchSize = 101 },
			wantErr: true,
		},
		{
			name:    "batch size zero",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.HTTPTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "retry max below initial",
			mutate:  func(c *Config) { c.RetryMax = c.RetryInitial / 2 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.wantAPIURL != "" && cfg.APIURL != tt.wantAPIURL {
				t.Errorf("APIURL = %v, want %v", cfg.APIURL, tt.wantAPIURL)
			}
		})
	}
}

func TestConfig_Validate_StateDirDerivation(t *testing.T) {
	c1 := validConfig()
	c1.SpoolDir = "/var/spool/lago"
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.StateDir != "/var/spool/lago" {
		t.Errorf("StateDir = %v, want /var/spool/lago", c1.StateDir)
	}

	c2 := validConfig()
	c2.SpoolDir = "/var/spool/lago"
	c2.StateDir = "/state"
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.StateDir != "/state" {
		t.Errorf("StateDir = %v, want /state", c2.StateDir)
	}
}

func TestConfig_ValidateSpool(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateSpool(); err == nil {
		t.Error("ValidateSpool() expected error without spool dir")
	}
	cfg.SpoolDir = "/spool"
	if err := cfg.ValidateSpool(); err != nil {
		t.Errorf("ValidateSpool() unexpected error: %v", err)
	}
	cfg.MaxAttempts = 0
	if err := cfg.ValidateSpool(); err == nil {
		t.Error("ValidateSpool() expected error for zero max attempts")
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := validConfig()
	masked := cfg.Masked()
	if masked.APIToken != "*****" {
		t.Errorf("masked APIToken = %v", masked.APIToken)
	}
	if cfg.APIToken != "token" {
		t.Errorf("Masked() modified the original")
	}
}
