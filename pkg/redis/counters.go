package redis

import (
	"context"
	"fmt"
	"time"
)

// FixedWindowAllow counts one hit against scope and reports whether the
// count is still within limit for the current window.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.cmd == nil {
		return false, 0, errNotConnected
	}
	key := c.RateLimitKey(scope)
	count, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	// NX keeps the first hit's deadline and repairs a key left without one.
	if window > 0 {
		if err := c.cmd.ExpireNX(ctx, key, window).Err(); err != nil {
			return false, count, fmt.Errorf("rate limit %s: %w", scope, err)
		}
	}
	return count <= limit, count, nil
}

// NextSequence increments the named counter. When the counter does not exist
// yet it is first seeded with seed's value, so a flushed Redis resumes after
// the highest number already handed out.
func (c *Client) NextSequence(ctx context.Context, name string, seed func(context.Context) (int64, error)) (int64, error) {
	if c.cmd == nil {
		return 0, errNotConnected
	}
	key := c.CounterKey(name)
	if seed != nil {
		n, err := c.cmd.Exists(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("check sequence %s: %w", name, err)
		}
		if n == 0 {
			start, err := seed(ctx)
			if err != nil {
				return 0, fmt.Errorf("seed sequence %s: %w", name, err)
			}
			// A concurrent seeder may win; either value is a floor.
			if err := c.cmd.SetNX(ctx, key, start, 0).Err(); err != nil {
				return 0, fmt.Errorf("seed sequence %s: %w", name, err)
			}
		}
	}
	next, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return next, nil
}

// raiseCounterLua lifts KEYS[1] to ARGV[1] when it holds less and returns the
// previous value, -1 when unset.
const raiseCounterLua = `
local raw = redis.call('GET', KEYS[1])
local current = -1
if raw then
  current = tonumber(raw)
  if current == nil then
    return redis.error_reply('counter ' .. KEYS[1] .. ' is not an integer')
  end
end
if current < tonumber(ARGV[1]) then
  redis.call('SET', KEYS[1], ARGV[1])
end
return current
`

// RaiseCounter moves the named counter up to floor in one server-side step,
// so a concurrent NextSequence can never be undone. It reports the previous
// value (-1 when the counter did not exist) and whether it was raised.
func (c *Client) RaiseCounter(ctx context.Context, name string, floor int64) (int64, bool, error) {
	if c.cmd == nil {
		return 0, false, errNotConnected
	}
	prev, err := c.cmd.Eval(ctx, raiseCounterLua, []string{c.CounterKey(name)}, floor).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("raise sequence %s: %w", name, err)
	}
	return prev, prev < floor, nil
}
