package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/bft-labs/lagoship/pkg/log"
)

// DefaultSecretKey is the JSON key holding the token inside a secret.
const DefaultSecretKey = "LAGO_API_TOKEN"

var (
	// ErrMissingToken is returned when neither a token nor a secret reference is configured.
	ErrMissingToken = errors.New("credentials: no api token or token secret configured")

	// ErrMissingURL is returned when the API URL is empty.
	ErrMissingURL = errors.New("credentials: no api url configured")

	// ErrSecretKeyNotFound is returned when the secret lacks the token key.
	ErrSecretKeyNotFound = errors.New("credentials: token key not found in secret")
)

// Config names where the credentials come from.
type Config struct {
	APIURL string

	// APIToken, when set, is used as is and no secret is read.
	APIToken string

	// TokenSecretRef is a Secrets Manager secret ID/ARN or an s3://bucket/key URL.
	TokenSecretRef string

	// SecretKey is the JSON key of the token. Defaults to DefaultSecretKey.
	SecretKey string
}

// Credentials are what a Lago client needs to authenticate.
type Credentials struct {
	APIURL   string
	APIToken string
}

// SecretsManagerAPI is the subset of *secretsmanager.Client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ObjectAPI is the subset of *s3.Client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Resolver reads tokens from secret stores.
type Resolver struct {
	secrets SecretsManagerAPI
	objects ObjectAPI
	logger  log.Logger
}

// NewResolver creates a resolver over the given clients. Either client may be
// nil if references of that kind are never resolved.
func NewResolver(secrets SecretsManagerAPI, objects ObjectAPI, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Resolver{secrets: secrets, objects: objects, logger: logger}
}

// AWSConfig configures the AWS clients built by NewAWSResolver.
type AWSConfig struct {
	Region string

	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string

	// Static keys; when empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// NewAWSResolver builds Secrets Manager and S3 clients from the AWS default
// configuration.
func NewAWSResolver(ctx context.Context, cfg AWSConfig, logger log.Logger) (*Resolver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	sm := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	obj := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewResolver(sm, obj, logger), nil
}

// Resolve returns the API URL and token described by cfg.
func (r *Resolver) Resolve(ctx context.Context, cfg Config) (Credentials, error) {
	if cfg.APIURL == "" {
		return Credentials{}, ErrMissingURL
	}
	if cfg.APIToken != "" {
		return Credentials{APIURL: cfg.APIURL, APIToken: cfg.APIToken}, nil
	}
	if cfg.TokenSecretRef == "" {
		return Credentials{}, ErrMissingToken
	}

	key := cfg.SecretKey
	if key == "" {
		key = DefaultSecretKey
	}

	raw, err := r.fetch(ctx, cfg.TokenSecretRef)
	if err != nil {
		return Credentials{}, err
	}
	token, err := tokenFromSecret(raw, key)
	if err != nil {
		return Credentials{}, fmt.Errorf("secret %s: %w", cfg.TokenSecretRef, err)
	}

	r.logger.Debug("resolved api token from secret", log.String("secret", cfg.TokenSecretRef))
	return Credentials{APIURL: cfg.APIURL, APIToken: token}, nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) ([]byte, error) {
	if !strings.HasPrefix(ref, "s3://") {
		return r.fetchSecret(ctx, ref)
	}
	bucket, key, ok := parseS3URL(ref)
	if !ok {
		return nil, fmt.Errorf("invalid s3 secret url %q: want s3://bucket/key", ref)
	}
	return r.fetchObject(ctx, bucket, key)
}

func (r *Resolver) fetchSecret(ctx context.Context, id string) ([]byte, error) {
	if r.secrets == nil {
		return nil, fmt.Errorf("secret %s: no secrets manager client", id)
	}
	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}
	return nil, fmt.Errorf("secret %s is empty", id)
}

func (r *Resolver) fetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if r.objects == nil {
		return nil, fmt.Errorf("s3://%s/%s: no s3 client", bucket, key)
	}
	out, err := r.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func tokenFromSecret(raw []byte, key string) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("decode secret json: %w", err)
	}
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretKeyNotFound, key)
	}
	token, ok := v.(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return token, nil
}

func parseS3URL(ref string) (bucket, key string, ok bool) {
	rest, _ := strings.CutPrefix(ref, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
