package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

const (
	tokenKeyPrefix = "checkout:token:"
	orderKeyPrefix = "checkout:order:"
)

// issueScript binds a token to an order only if the order has no live
// token yet. KEYS[1] token key, KEYS[2] order key; ARGV[1] order id,
// ARGV[2] token, ARGV[3] ttl ms.
var issueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return redis.error_reply('DUPLICATE')
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 'OK'
`)

// rotateScript retires the old token and installs the new one in a
// single step, so no observer sees a state where both fail to resolve.
// KEYS[1] old token key, KEYS[2] new token key, KEYS[3] order key prefix
// is embedded in ARGV; ARGV[1] new token, ARGV[2] ttl ms.
var rotateScript = redis.NewScript(`
local order = redis.call('GET', KEYS[1])
if not order then
  return redis.error_reply('NOTFOUND')
end
redis.call('SET', KEYS[2], order, 'PX', ARGV[2])
redis.call('SET', KEYS[3] .. order, ARGV[1], 'PX', ARGV[2])
redis.call('DEL', KEYS[1])
return 'OK'
`)

// RedisRegistry implements the token registry on redis for multi-instance
// deployments. Atomicity comes from running issue/rotate as Lua scripts;
// keys carry a TTL so abandoned sessions expire on their own. Not
// cluster-safe: the rotate script derives the order key inside the script.
type RedisRegistry struct {
	rdb  *redis.Client
	ttl  time.Duration
	rand io.Reader
}

func NewRedisRegistry(rdb *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{rdb: rdb, ttl: ttl, rand: rand.Reader}
}

func (r *RedisRegistry) Issue(ctx context.Context, orderID string) (string, error) {
	tok, err := r.newToken()
	if err != nil {
		return "", err
	}
	err = issueScript.Run(ctx, r.rdb,
		[]string{tokenKeyPrefix + tok, orderKeyPrefix + orderID},
		orderID, tok, strconv.FormatInt(r.ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (r *RedisRegistry) Get(ctx context.Context, tok string) (string, error) {
	orderID, err := r.rdb.Get(ctx, tokenKeyPrefix+tok).Result()
	if err == redis.Nil {
		return "", application.ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func (r *RedisRegistry) Rotate(ctx context.Context, old string) (string, error) {
	next, err := r.newToken()
	if err != nil {
		return "", err
	}
	err = rotateScript.Run(ctx, r.rdb,
		[]string{tokenKeyPrefix + old, tokenKeyPrefix + next, orderKeyPrefix},
		next, strconv.FormatInt(r.ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		if strings.Contains(err.Error(), "NOTFOUND") {
			return "", application.ErrTokenNotFound
		}
		return "", err
	}
	return next, nil
}

func (r *RedisRegistry) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r.rand, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
