package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobLock is a redis-backed lock that keeps a scheduled job from running on
// more than one scheduler replica at a time. The TTL bounds how long a
// crashed holder can block the next run.
type JobLock struct {
	client *redis.Client
	prefix string
	holder string
}

func NewJobLock(client *redis.Client, prefix string) *JobLock {
	if prefix == "" {
		prefix = "microlend:jobs"
	}
	return &JobLock{
		client: client,
		prefix: prefix,
		holder: uuid.NewString(),
	}
}

func (l *JobLock) key(name string) string {
	return l.prefix + ":lock:" + name
}

func (l *JobLock) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key(name), l.holder, ttl).Result()
}

// Unlock releases the lock only if this instance still holds it, so a run
// that outlived its TTL cannot release a lock re-acquired elsewhere.
func (l *JobLock) Unlock(ctx context.Context, name string) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`
	return l.client.Eval(ctx, script, []string{l.key(name)}, l.holder).Err()
}
