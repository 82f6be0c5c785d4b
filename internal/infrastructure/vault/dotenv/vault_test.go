// Package dotenv_test provides unit tests for the dotenv vault client.
package dotenv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/infrastructure/vault/dotenv"
)

func TestStoreAndGetSecret(t *testing.T) {
	client, err := dotenv.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	uri, err := client.StoreSecret(ctx, "TEST_SECRET", "secret-value")
	require.NoError(t, err)
	assert.Equal(t, "dotenv://TEST_SECRET", uri)

	value, err := client.GetSecret(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "secret-value", value)
}

func TestGetSecret_FromEnvironment(t *testing.T) {
	client, err := dotenv.NewClient()
	require.NoError(t, err)

	t.Setenv("TEST_ENV_SECRET", "from-env")

	value, err := client.GetSecret(context.Background(), "dotenv://TEST_ENV_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestGetSecret_NotFound(t *testing.T) {
	client, err := dotenv.NewClient()
	require.NoError(t, err)

	_, err = client.GetSecret(context.Background(), "dotenv://MISSING_SECRET")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

func TestDeleteSecret(t *testing.T) {
	client, err := dotenv.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	uri, err := client.StoreSecret(ctx, "DELETE_ME", "value")
	require.NoError(t, err)

	deleted, err := client.DeleteSecret(ctx, uri)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.DeleteSecret(ctx, uri)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPingAndClose(t *testing.T) {
	client, err := dotenv.NewClient()
	require.NoError(t, err)

	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}
