package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/elimu/core"
)

const (
	keyPrefix         = "elimu:lock:"
	defaultTTL        = 10 * time.Second
	defaultRetryDelay = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds the caller's token,
// so a holder whose TTL ran out cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a core.Locker shared by every API process using the same redis.
type RedisLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	log        core.Logger
}

var _ core.Locker = (*RedisLocker)(nil)

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithRetryDelay(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

func NewRedisLocker(client redis.UniversalClient, logger core.Logger, opts ...RedisOption) *RedisLocker {
	if logger == nil {
		logger = core.NopLogger{}
	}
	l := &RedisLocker{client: client, ttl: defaultTTL, retryDelay: defaultRetryDelay, log: logger}
	for _, o := range opts {
		o(l)
	}
	return l
}

// NewRedisClient parses url and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, errors.Wrapf(err, "acquiring lock %s", key)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(core.ErrLockNotAcquired, "%s: %v", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(key, token string) func() {
	return func() {
		// the request context may already be done; release regardless
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			l.log.Error("releasing lock", "key", key, err)
			return
		}
		if n == 0 {
			l.log.Warn("lock expired before release", "key", key, "ttl", l.ttl.String())
		}
	}
}
