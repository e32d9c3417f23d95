// Package clock implements the per-wallet monotonic server_modified
// allocator on top of Redis, using an atomic Lua script so concurrent
// pushes against the same wallet never hand out the same or a
// lower value.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/alaalsalam/hisabi-backend/common/mredis"
	"github.com/redis/go-redis/v9"
)

// bump implements server_modified = max(now, last_assigned + 1), storing the
// result back under key. Using a single EVAL keeps the read-compare-write
// atomic without a client-side lock.
const bump = `
local now = tonumber(ARGV[1])
local last = tonumber(redis.call('GET', KEYS[1]) or '0')
local next = now
if last >= next then
  next = last + 1
end
redis.call('SET', KEYS[1], next)
return next
`

// WalletClock allocates strictly monotonic millisecond timestamps scoped to
// one wallet_id.
type WalletClock struct {
	conn *mredis.RedisConnection
}

func NewWalletClock(conn *mredis.RedisConnection) *WalletClock {
	return &WalletClock{conn: conn}
}

func (c *WalletClock) key(walletID string) string {
	return "sync:clock:" + walletID
}

// Next allocates and returns the next server_modified value for walletID.
func (c *WalletClock) Next(ctx context.Context, walletID string) (int64, error) {
	client, err := c.conn.GetDB(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UnixMilli()

	res, err := client.Eval(ctx, bump, []string{c.key(walletID)}, now).Result()
	if err != nil {
		return 0, err
	}

	return toInt64(res)
}

// Now returns the last value allocated for walletID without advancing it,
// used for the server_time field on responses that don't themselves mutate
// anything (a pull with no new items still needs to report server_time).
func (c *WalletClock) Now(ctx context.Context, walletID string) (int64, error) {
	client, err := c.conn.GetDB(ctx)
	if err != nil {
		return 0, err
	}

	val, err := client.Get(ctx, c.key(walletID)).Result()
	if err == redis.Nil {
		return time.Now().UnixMilli(), nil
	}

	if err != nil {
		return 0, err
	}

	return toInt64(val)
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		var n int64
		_, err := fmt.Sscan(t, &n)

		return n, err
	default:
		return 0, redis.Nil
	}
}
