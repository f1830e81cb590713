package credentials

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values map[string]string
	calls  int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

type fakeObjects struct {
	objects map[string]string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(v))}, nil
}

const arn = "arn:aws:secretsmanager:us-east-1:123456789012:secret:lago-api-token"

func TestResolve_LiteralTokenSkipsSecretStore(t *testing.T) {
	sm := &fakeSecrets{}
	r := NewResolver(sm, nil, nil)

	creds, err := r.Resolve(context.Background(), Config{
		APIURL:         "https://lago.example.com",
		APIToken:       "literal",
		TokenSecretRef: arn,
	})
	require.NoError(t, err)
	assert.Equal(t, Credentials{APIURL: "https://lago.example.com", APIToken: "literal"}, creds)
	assert.Zero(t, sm.calls)
}

func TestResolve_SecretsManager(t *testing.T) {
	sm := &fakeSecrets{values: map[string]string{
		arn: `{"LAGO_API_TOKEN":"from-secret","OTHER":"x"}`,
	}}
	r := NewResolver(sm, nil, nil)

	creds, err := r.Resolve(context.Background(), Config{APIURL: "https://lago.example.com", TokenSecretRef: arn})
	require.NoError(t, err)
	assert.Equal(t, "from-secret", creds.APIToken)
	assert.Equal(t, 1, sm.calls)
}

func TestResolve_CustomSecretKey(t *testing.T) {
	sm := &fakeSecrets{values: map[string]string{"billing": `{"token":"abc"}`}}
	r := NewResolver(sm, nil, nil)

	creds, err := r.Resolve(context.Background(), Config{APIURL: "https://x", TokenSecretRef: "billing", SecretKey: "token"})
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.APIToken)
}

func TestResolve_S3Object(t *testing.T) {
	objs := &fakeObjects{objects: map[string]string{"secrets/lago.json": `{"LAGO_API_TOKEN":"from-s3"}`}}
	r := NewResolver(nil, objs, nil)

	creds, err := r.Resolve(context.Background(), Config{APIURL: "https://x", TokenSecretRef: "s3://secrets/lago.json"})
	require.NoError(t, err)
	assert.Equal(t, "from-s3", creds.APIToken)
}

func TestResolve_Errors(t *testing.T) {
	sm := &fakeSecrets{values: map[string]string{
		"no-key":     `{"OTHER":"x"}`,
		"not-json":   `LAGO_API_TOKEN=abc`,
		"not-string": `{"LAGO_API_TOKEN":42}`,
	}}
	r := NewResolver(sm, &fakeObjects{}, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Config{APIToken: "t"})
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = r.Resolve(ctx, Config{APIURL: "https://x"})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = r.Resolve(ctx, Config{APIURL: "https://x", TokenSecretRef: "no-key"})
	assert.ErrorIs(t, err, ErrSecretKeyNotFound)

	_, err = r.Resolve(ctx, Config{APIURL: "https://x", TokenSecretRef: "not-json"})
	assert.ErrorContains(t, err, "decode secret json")

	_, err = r.Resolve(ctx, Config{APIURL: "https://x", TokenSecretRef: "not-string"})
	assert.ErrorContains(t, err, "non-empty string")

	_, err = r.Resolve(ctx, Config{APIURL: "https://x", TokenSecretRef: "missing"})
	assert.ErrorContains(t, err, "ResourceNotFoundException")

	_, err = r.Resolve(ctx, Config{APIURL: "https://x", TokenSecretRef: "s3://bucket-only"})
	assert.ErrorContains(t, err, "want s3://bucket/key")
}

func TestResolve_NoClientForReference(t *testing.T) {
	r := NewResolver(nil, nil, nil)

	_, err := r.Resolve(context.Background(), Config{APIURL: "https://x", TokenSecretRef: arn})
	assert.ErrorContains(t, err, "no secrets manager client")

	_, err = r.Resolve(context.Background(), Config{APIURL: "https://x", TokenSecretRef: "s3://b/k"})
	assert.ErrorContains(t, err, "no s3 client")
}
