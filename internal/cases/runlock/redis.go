package runlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainerrors "calibra/pkg/domain-errors"
)

const runLockKeyPrefix = "runlock:case:"

// releaseScript deletes the lock key only when it still carries our token,
// so an instance never releases a lock that expired and was re-acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker over a shared Redis instance, for
// deployments running more than one process. Locks carry a TTL as a
// crash backstop; release is compare-and-delete on a per-acquire token.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, caseID string) (func(), error) {
	key := runLockKeyPrefix + caseID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDataSource, "acquire run lock")
	}
	if !ok {
		return nil, domainerrors.Newf(domainerrors.CodeConflict, "case %s is already running", caseID)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Release must not depend on the caller's (possibly
			// cancelled) context.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}
	return release, nil
}
