package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables.
// The API settings use the LAGO_API_* names shared with other Lago tooling;
// everything else is LAGOSHIP_*. Explicitly set flags (changed map) win.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-url", os.Getenv("LAGO_API_URL"), &cfg.APIURL)
	s.setToken(os.Getenv("LAGO_API_TOKEN"), os.Getenv("LAGO_API_TOKEN_ARN"), cfg)
	s.setString("secret-key", os.Getenv("LAGOSHIP_SECRET_KEY"), &cfg.SecretKey)
	s.setString("aws-region", os.Getenv("LAGOSHIP_AWS_REGION"), &cfg.AWSRegion)
	s.setString("aws-endpoint", os.Getenv("LAGOSHIP_AWS_ENDPOINT"), &cfg.AWSEndpoint)
	s.setString("log-level", os.Getenv("LAGOSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("spool-dir", os.Getenv("LAGOSHIP_SPOOL_DIR"), &cfg.SpoolDir)
	s.setString("state-dir", os.Getenv("LAGOSHIP_STATE_DIR"), &cfg.StateDir)

	if err := s.setDuration("timeout", os.Getenv("LAGOSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("LAGOSHIP_DEBOUNCE"), &cfg.DebounceDelay); err != nil {
		return err
	}
	if err := s.setDuration("retry-initial", os.Getenv("LAGOSHIP_RETRY_INITIAL"), &cfg.RetryInitial); err != nil {
		return err
	}
	if err := s.setDuration("retry-max", os.Getenv("LAGOSHIP_RETRY_MAX"), &cfg.RetryMax); err != nil {
		return err
	}

	if err := s.setIntFromString("batch-size", os.Getenv("LAGOSHIP_BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}

	if err := s.setIntFromString("max-attempts", os.Getenv("LAGOSHIP_MAX_ATTEMPTS"), &cfg.MaxAttempts); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("LAGOSHIP_ONCE"), &cfg.Once)

	return nil
}
