package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ContextCache is the Redis implementation of continuity.ContextCache.
// It stores previous-year context responses keyed per requirement so that
// repeated lookups skip the resolve/map/match pipeline.
//
// The cache is strictly an accelerator: every failure path degrades to a
// miss and the caller recomputes.  Entries are written fire-and-forget.
type ContextCache struct {
	client *Client
	logger logging.Logger
	prefix string
}

// NewContextCache creates a ContextCache using the given key prefix
// (typically the platform name from configuration).
func NewContextCache(client *Client, prefix string, logger logging.Logger) *ContextCache {
	if prefix == "" {
		prefix = "qiyas"
	}
	return &ContextCache{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (c *ContextCache) key(requirementID common.ID) string {
	return c.prefix + ":prevctx:" + string(requirementID)
}

// Get returns the cached previous-year context for a requirement, with a
// second return value reporting a hit.
func (c *ContextCache) Get(ctx context.Context, requirementID common.ID) (*continuity.PreviousYearContext, bool) {
	raw, err := c.client.Get(ctx, c.key(requirementID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("previous-context cache read failed",
				logging.Err(err),
				logging.String("requirement_id", string(requirementID)))
		}
		return nil, false
	}

	var pyc continuity.PreviousYearContext
	if err := json.Unmarshal(raw, &pyc); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn("previous-context cache entry is corrupt; evicting",
			logging.Err(err),
			logging.String("requirement_id", string(requirementID)))
		c.client.Del(ctx, c.key(requirementID))
		return nil, false
	}
	return &pyc, true
}

// Set stores the previous-year context for a requirement with the given TTL.
func (c *ContextCache) Set(ctx context.Context, requirementID common.ID, value *continuity.PreviousYearContext, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("previous-context cache serialization failed",
			logging.Err(err),
			logging.String("requirement_id", string(requirementID)))
		return
	}
	if err := c.client.Set(ctx, c.key(requirementID), raw, ttl).Err(); err != nil {
		c.logger.Warn("previous-context cache write failed",
			logging.Err(err),
			logging.String("requirement_id", string(requirementID)))
	}
}

// Invalidate removes the cached context for a requirement.  Called when a
// previous-cycle link or section mapping changes.
func (c *ContextCache) Invalidate(ctx context.Context, requirementIDs ...common.ID) error {
	if len(requirementIDs) == 0 {
		return nil
	}
	keys := make([]string, len(requirementIDs))
	for i, id := range requirementIDs {
		keys[i] = c.key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateAll drops every cached previous-year context under this prefix.
// Used after bulk mapping edits, where per-requirement invalidation would be
// more expensive than recomputing.
func (c *ContextCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	pattern := c.prefix + ":prevctx:*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
