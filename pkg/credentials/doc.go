// Package credentials resolves the Lago API URL and bearer token.
//
// The token is taken literally when configured, otherwise it is read from a
// JSON secret. The secret reference is either an AWS Secrets Manager secret
// ID or ARN, or an S3 object URL of the form s3://bucket/key. In both cases
// the secret is a JSON object and the token is stored under SecretKey
// (LAGO_API_TOKEN unless configured otherwise).
package credentials
