package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
)

// ErrLockNotHeld is returned by Unlock when the lock key is missing or owned
// by someone else, which usually means the TTL expired mid-operation.
var ErrLockNotHeld = errors.New(errors.ErrCodeCacheError, "lock not held by this owner")

// defaultUploadLockTTL bounds how long a crashed uploader can block an index.
const defaultUploadLockTTL = 2 * time.Minute

// unlockScript deletes the key only when this owner still holds it.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// UploadLock serialises recommendation uploads per index. Only one batch may
// write recommendations for a given index at a time; a second concurrent
// upload is rejected rather than queued, since replaying the same sheet twice
// is the likely cause.
type UploadLock struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewUploadLock builds an UploadLock.  prefix namespaces the lock keys the
// same way the context cache namespaces its entries.
func NewUploadLock(client *Client, prefix string, logger logging.Logger) *UploadLock {
	if prefix == "" {
		prefix = "qiyas"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UploadLock{
		client: client,
		prefix: prefix,
		ttl:    defaultUploadLockTTL,
		logger: logger.Named("redis.uploadlock"),
	}
}

// TryAcquire attempts to take the upload lock for an index.  On success it
// returns a release func the caller must invoke when the batch finishes.
// When the lock is already held it returns an UPL_005 conflict error.
func (l *UploadLock) TryAcquire(ctx context.Context, indexID string) (release func(), err error) {
	key := l.key(indexID)
	owner := uuid.New().String()

	ok, err := l.client.Underlying().SetNX(ctx, key, owner, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire upload lock")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeUploadInProgress,
			"an upload for index "+indexID+" is already in progress")
	}

	release = func() {
		// Detached context so release still runs when the request context
		// was cancelled mid-upload.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rerr := l.unlock(rctx, key, owner); rerr != nil {
			l.logger.Warn("upload lock release failed",
				logging.String("index_id", indexID),
				logging.Err(rerr))
		}
	}
	return release, nil
}

func (l *UploadLock) unlock(ctx context.Context, key, owner string) error {
	res, err := unlockScript.Run(ctx, l.client.Underlying(), []string{key}, owner).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release upload lock")
	}
	if n, _ := res.(int64); n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *UploadLock) key(indexID string) string {
	return l.prefix + ":lock:upload:" + indexID
}
