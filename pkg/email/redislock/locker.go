package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailkit/pkg/email"
)

// DefaultPrefix namespaces claim keys.
const DefaultPrefix = "mailkit:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another worker is never dropped.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements email.Claimer with Redis leases: SET NX PX to claim and
// a compare-and-delete script to release.
type Locker struct {
	client redis.UniversalClient
	prefix string
	token  string
	next   email.Claimer
}

// Option configures a Locker.
type Option func(*Locker)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(l *Locker) {
		l.prefix = prefix
	}
}

// WithToken sets the owner token written into every lease. Defaults to a random uuid.
func WithToken(token string) Option {
	return func(l *Locker) {
		if token != "" {
			l.token = token
		}
	}
}

// WithNext chains a second claimer, usually the queue store. A claim is won only
// when both agree; the Redis lease is dropped when next refuses.
func WithNext(next email.Claimer) Option {
	return func(l *Locker) {
		l.next = next
	}
}

func New(client redis.UniversalClient, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		prefix: DefaultPrefix,
		token:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) key(id uuid.UUID) string {
	return l.prefix + "email:claim:" + id.String()
}

// Claim takes the lease for ttl. It returns false while another owner holds it.
func (l *Locker) Claim(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(id), l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redislock: claim %s: %w", id, err)
	}
	if !ok || l.next == nil {
		return ok, nil
	}

	ok, err = l.next.Claim(ctx, id, ttl)
	if err != nil || !ok {
		if rerr := l.unlock(ctx, id); rerr != nil && err == nil {
			err = rerr
		}
		return false, err
	}
	return true, nil
}

// Release drops the lease when this locker still owns it.
func (l *Locker) Release(ctx context.Context, id uuid.UUID) error {
	if err := l.unlock(ctx, id); err != nil {
		return err
	}
	if l.next != nil {
		return l.next.Release(ctx, id)
	}
	return nil
}

func (l *Locker) unlock(ctx context.Context, id uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(id)}, l.token).Err(); err != nil {
		return fmt.Errorf("redislock: release %s: %w", id, err)
	}
	return nil
}

var _ email.Claimer = (*Locker)(nil)
