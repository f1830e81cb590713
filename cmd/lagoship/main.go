package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/lagoship/internal/cliconfig"
	"github.com/bft-labs/lagoship/pkg/credentials"
	"github.com/bft-labs/lagoship/pkg/lago"
	"github.com/bft-labs/lagoship/pkg/log"
)

const helpDescription = `
Ship usage events to Lago and query billing data.

Highlights:
  - Uploads events in batches of up to 100 and re-submits only the events
    Lago has not seen before when a batch contains duplicates.
  - Turns hourly resource counts into idempotent "resource-hours" events.
  - Watches a spool directory and uploads NDJSON files as they land.
  - Reads the API token from flags, env, a config file, AWS Secrets Manager
    or S3.
`

var exampleUsage = strings.TrimSpace(`
  lagoship upload events.ndjson --api-token <token>
  lagoship upload-hours hours.csv --api-token-secret arn:aws:secretsmanager:...
  lagoship watch --spool-dir /var/spool/lago --config $HOME/.lagoship/config.toml
  lagoship subscriptions --all
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the resolved configuration and clients to subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
	client  *lago.Client
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig()}
	root := newRootCmd(a)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger := a.logger
		if logger == nil {
			logger = log.NewZerologAdapter(zerolog.InfoLevel)
		}
		logger.Error("lagoship", log.Err(err))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lagoship",
		Short:         "Ship usage events to Lago",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.lagoship/config.toml)")
	pf.StringVar(&a.cfg.APIURL, "api-url", a.cfg.APIURL, "Lago API base URL")
	pf.StringVar(&a.cfg.APIToken, "api-token", a.cfg.APIToken, "Lago API token")
	pf.StringVar(&a.cfg.APITokenSecret, "api-token-secret", a.cfg.APITokenSecret, "Secrets Manager secret ID/ARN or s3://bucket/key holding the token")
	pf.StringVar(&a.cfg.SecretKey, "secret-key", a.cfg.SecretKey, "JSON key of the token inside the secret")
	pf.StringVar(&a.cfg.AWSRegion, "aws-region", a.cfg.AWSRegion, "AWS region for secret lookups")
	pf.StringVar(&a.cfg.AWSEndpoint, "aws-endpoint", a.cfg.AWSEndpoint, "AWS endpoint override (e.g. LocalStack)")
	if err := pf.MarkHidden("aws-endpoint"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to hide aws-endpoint flag:", err)
	}
	pf.DurationVar(&a.cfg.HTTPTimeout, "timeout", a.cfg.HTTPTimeout, "HTTP timeout per request")
	pf.IntVar(&a.cfg.BatchSize, "batch-size", a.cfg.BatchSize, "events per upload request (1..100)")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		a.uploadCmd(),
		a.uploadHoursCmd(),
		a.watchCmd(),
		a.invoicesCmd(),
		a.plansCmd(),
		a.subscriptionsCmd(),
	)
	return root
}

// setup layers file, env and flag configuration, then builds the logger and
// Lago client. Flags win over env, env over the config file.
func (a *app) setup(cmd *cobra.Command, validate func(*cliconfig.Config) error) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = log.NewZerologAdapter(level)

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if validate != nil {
		if err := validate(&a.cfg); err != nil {
			return err
		}
	}

	zl := a.logger.Logger()
	zl.Info().Interface("config", a.cfg.Masked()).Msg("configuration")

	creds, err := a.resolveCredentials(cmd.Context())
	if err != nil {
		return err
	}

	a.client, err = lago.New(creds.APIURL, creds.APIToken,
		lago.WithHTTPClient(&http.Client{Timeout: a.cfg.HTTPTimeout}),
		lago.WithBatchSize(a.cfg.BatchSize),
		lago.WithLogger(a.logger),
		lago.WithUserAgent("lagoship/"+getVersion()),
	)
	if err != nil {
		return fmt.Errorf("create lago client: %w", err)
	}
	return nil
}

func (a *app) resolveCredentials(ctx context.Context) (credentials.Credentials, error) {
	ref := credentials.Config{
		APIURL:         a.cfg.APIURL,
		APIToken:       a.cfg.APIToken,
		TokenSecretRef: a.cfg.APITokenSecret,
		SecretKey:      a.cfg.SecretKey,
	}

	resolver := credentials.NewResolver(nil, nil, a.logger)
	if a.cfg.APIToken == "" && a.cfg.APITokenSecret != "" {
		var err error
		resolver, err = credentials.NewAWSResolver(ctx, credentials.AWSConfig{
			Region:   a.cfg.AWSRegion,
			Endpoint: a.cfg.AWSEndpoint,
		}, a.logger)
		if err != nil {
			return credentials.Credentials{}, err
		}
	}
	return resolver.Resolve(ctx, ref)
}
