package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				APIURL:         "http://lago:3000",
				APITokenSecret: "s3://secrets/lago.json",
				SecretKey:      "TOKEN",
				AWSRegion:      "us-west-2",
				AWSEndpoint:    "http://localstack:4566",
				HTTPTimeout:    "45s",
				BatchSize:      40,
				LogLevel:       "warn",
				SpoolDir:       "/spool",
				StateDir:       "/state",
				DebounceDelay:  "1s",
				RetryInitial:   "3s",
				RetryMax:       "2m",
				MaxAttempts:    9,
				Once:           &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				APIURL:         "http://lago:3000",
				APITokenSecret: "s3://secrets/lago.json",
				SecretKey:      "TOKEN",
				AWSRegion:      "us-west-2",
				AWSEndpoint:    "http://localstack:4566",
				HTTPTimeout:    45 * time.Second,
				BatchSize:      40,
				LogLevel:       "warn",
				SpoolDir:       "/spool",
				StateDir:       "/state",
				DebounceDelay:  time.Second,
				RetryInitial:   3 * time.Second,
				RetryMax:       2 * time.Minute,
				MaxAttempts:    9,
				Once:           true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				APIURL:    "http://file",
				BatchSize: 10,
			},
			changed: map[string]bool{"batch-size": true},
			initial: Config{BatchSize: 100},
			expected: Config{
				APIURL:    "http://file",
				BatchSize: 100, // unchanged because flag was set
			},
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{HTTPTimeout: "forever"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v\nwant     %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
api_url = "https://api.getlago.com"
api_token_secret = "arn:aws:secretsmanager:us-east-1:1:secret:lago"
batch_size = 100
http_timeout = "20s"
once = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.APIURL != "https://api.getlago.com" {
		t.Errorf("APIURL = %v", fc.APIURL)
	}
	if fc.APITokenSecret != "arn:aws:secretsmanager:us-east-1:1:secret:lago" {
		t.Errorf("APITokenSecret = %v", fc.APITokenSecret)
	}
	if fc.BatchSize != 100 {
		t.Errorf("BatchSize = %v, want 100", fc.BatchSize)
	}
	if fc.HTTPTimeout != "20s" {
		t.Errorf("HTTPTimeout = %v, want 20s", fc.HTTPTimeout)
	}
	if fc.Once == nil || !*fc.Once {
		t.Errorf("Once = %v, want true", fc.Once)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
api_url = "http://x"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path != "" && !strings.Contains(path, ".lagoship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .lagoship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
