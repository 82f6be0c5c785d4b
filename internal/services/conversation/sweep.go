package conversation

import (
	"context"
	"fmt"

	"github.com/javatutor/session-service/internal/core/cache"
)

// legacyKeyBases are the storage families left behind by earlier releases.
// Each exists bare, with numeric suffixes _1.._10, and with _anonymous.
var legacyKeyBases = []string{
	"preserved_session",
	"session_metadata",
	"conversation_history",
}

// legacyKeySuffixCount is the highest numeric suffix ever written.
const legacyKeySuffixCount = 10

// SweepLegacyKeys removes the bounded set of per-user legacy storage keys.
// It runs at login so a previous user's conversation never leaks to the next
// learner on a shared device. Returns the number of keys removed.
func SweepLegacyKeys(ctx context.Context, cacheClient cache.Client) (int64, error) {
	var removed int64

	for _, base := range legacyKeyBases {
		for _, key := range legacyKeys(base) {
			deleted, err := cacheClient.Delete(ctx, key)
			if err != nil {
				return removed, fmt.Errorf("failed to sweep key %s: %w", key, err)
			}
			if deleted {
				removed++
			}
		}
	}

	return removed, nil
}

// legacyKeys enumerates every historical variant of a storage key base.
func legacyKeys(base string) []string {
	keys := make([]string, 0, legacyKeySuffixCount+2)
	keys = append(keys, base)
	for i := 1; i <= legacyKeySuffixCount; i++ {
		keys = append(keys, fmt.Sprintf("%s_%d", base, i))
	}
	keys = append(keys, base+"_anonymous")
	return keys
}
