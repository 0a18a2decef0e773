package bgserve

import (
	"context"
	"testing"

	"github.com/advdv/bgate"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretString(_ context.Context, secretID string) (string, error) {
	val, ok := f[secretID]
	if !ok {
		return "", errors.Newf("secret '%s' not found", secretID)
	}

	return val, nil
}

func TestRuntimeSecret(t *testing.T) {
	rt := NewRuntime(testEnv{}, bgate.NewRouter(), RuntimeParams{Secrets: fakeSecrets{
		"plain":   "s3cr3t",
		"catalog": `{"token":"abc","db":{"port":5432}}`,
	}})

	for _, tt := range []struct {
		name   string
		id     string
		path   []string
		exp    string
		expErr string
	}{
		{name: "plain value", id: "plain", exp: "s3cr3t"},
		{name: "whole json document", id: "catalog", exp: `{"token":"abc","db":{"port":5432}}`},
		{name: "json path", id: "catalog", path: []string{"token"}, exp: "abc"},
		{name: "nested json path", id: "catalog", path: []string{"db.port"}, exp: "5432"},
		{name: "missing path", id: "catalog", path: []string{"user"}, expErr: "secret 'catalog' has no value at 'user'"},
		{name: "path into plain value", id: "plain", path: []string{"token"}, expErr: "secret 'plain' does not hold JSON"},
		{name: "missing secret", id: "other", expErr: "secret 'other' not found"},
		{
			name: "more than one path", id: "catalog", path: []string{"token", "db"},
			expErr: "bgserve: at most one path per secret, got 2",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			val, err := rt.Secret(t.Context(), tt.id, tt.path...)
			if tt.expErr != "" {
				require.EqualError(t, err, tt.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.exp, val)
		})
	}

	t.Run("without a reader", func(t *testing.T) {
		bare := NewRuntime(testEnv{}, bgate.NewRouter(), RuntimeParams{})
		_, err := bare.Secret(t.Context(), "plain")
		require.EqualError(t, err, "bgserve: no secret reader configured")
	})
}

func TestNewAWSSecretReader(t *testing.T) {
	reader, err := NewAWSSecretReader(aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	require.NotNil(t, reader.cache)

	var _ SecretReader = reader
}
