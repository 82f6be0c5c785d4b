package conversation_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/services/conversation"
)

func TestSweepLegacyKeys_RemovesAllVariants(t *testing.T) {
	fx := setupStore(t)
	ctx := context.Background()

	seeded := 0
	for _, base := range []string{"preserved_session", "session_metadata", "conversation_history"} {
		require.NoError(t, fx.mr.Set(base, "stale"))
		seeded++
		for i := 1; i <= 10; i++ {
			require.NoError(t, fx.mr.Set(fmt.Sprintf("%s_%d", base, i), "stale"))
			seeded++
		}
		require.NoError(t, fx.mr.Set(base+"_anonymous", "stale"))
		seeded++
	}

	// A current-format slot must survive the sweep.
	current := conversation.SlotKey("session-1")
	require.NoError(t, fx.mr.Set(current, "keep"))

	removed, err := conversation.SweepLegacyKeys(ctx, fx.client)

	require.NoError(t, err)
	assert.Equal(t, int64(seeded), removed)
	assert.True(t, fx.mr.Exists(current))
	assert.False(t, fx.mr.Exists("preserved_session"))
	assert.False(t, fx.mr.Exists("session_metadata_7"))
	assert.False(t, fx.mr.Exists("conversation_history_anonymous"))
}

func TestSweepLegacyKeys_EmptyCacheIsFine(t *testing.T) {
	fx := setupStore(t)

	removed, err := conversation.SweepLegacyKeys(context.Background(), fx.client)

	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestSweepLegacyKeys_Idempotent(t *testing.T) {
	fx := setupStore(t)
	ctx := context.Background()

	require.NoError(t, fx.mr.Set("preserved_session_3", "stale"))

	first, err := conversation.SweepLegacyKeys(ctx, fx.client)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := conversation.SweepLegacyKeys(ctx, fx.client)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second)
}
