package bgserve

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// SecretReader reads the string value of a secret.
type SecretReader interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// AWSSecretReader reads secrets from AWS Secrets Manager. Values are cached in-process and refreshed once the
// cached version expires, so rotated secrets are picked up without a restart.
type AWSSecretReader struct {
	cache *secretcache.Cache
}

// NewAWSSecretReader creates a reader whose Secrets Manager client is built from the config.
func NewAWSSecretReader(cfg aws.Config) (*AWSSecretReader, error) {
	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = secretsmanager.NewFromConfig(cfg)
	})
	if err != nil {
		return nil, errors.Wrap(err, "init secret cache")
	}

	return &AWSSecretReader{cache: cache}, nil
}

// GetSecretString implements [SecretReader].
func (r *AWSSecretReader) GetSecretString(ctx context.Context, secretID string) (string, error) {
	val, err := r.cache.GetSecretStringWithContext(ctx, secretID)
	if err != nil {
		return "", errors.Wrapf(err, "read secret '%s'", secretID)
	}

	return val, nil
}

func provideSecretReader(cfg aws.Config) (SecretReader, error) {
	return NewAWSSecretReader(cfg)
}

// readSecret reads a secret. With a path, the secret must hold JSON and the string at the gjson path is
// returned instead.
func readSecret(ctx context.Context, reader SecretReader, secretID string, path ...string) (string, error) {
	if reader == nil {
		return "", errors.New("bgserve: no secret reader configured")
	}

	if len(path) > 1 {
		return "", errors.Newf("bgserve: at most one path per secret, got %d", len(path))
	}

	val, err := reader.GetSecretString(ctx, secretID)
	if err != nil {
		return "", err
	}

	if len(path) == 0 {
		return val, nil
	}

	if !gjson.Valid(val) {
		return "", errors.Newf("secret '%s' does not hold JSON", secretID)
	}

	res := gjson.Get(val, path[0])
	if !res.Exists() {
		return "", errors.Newf("secret '%s' has no value at '%s'", secretID, path[0])
	}

	return res.String(), nil
}
