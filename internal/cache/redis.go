package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"newsdesk/internal/config"
	"newsdesk/internal/domain"
)

// UnreadCounts caches per-user unread notification counts. Editors and
// reporters with the same id see different counts, so the role is part of
// the key.
type UnreadCounts struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewUnreadCounts(cfg config.RedisConfig) (*UnreadCounts, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &UnreadCounts{
		client: client,
		prefix: cfg.Prefix + "unread:",
		ttl:    cfg.TTL,
	}, nil
}

func (c *UnreadCounts) Close() error {
	return c.client.Close()
}

func (c *UnreadCounts) key(userID string, role domain.Role) string {
	return c.prefix + string(role) + ":" + userID
}

func (c *UnreadCounts) Get(ctx context.Context, userID string, role domain.Role) (int, bool, error) {
	val, err := c.client.Get(ctx, c.key(userID, role)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached count %q: %w", val, err)
	}
	return count, true, nil
}

func (c *UnreadCounts) genKey(recipient domain.Recipient) string {
	return c.prefix + "gen:" + recipient.Key()
}

func (c *UnreadCounts) genKeys(userID string, role domain.Role) []string {
	recipients := domain.RecipientsFor(userID, role)
	keys := make([]string, 0, len(recipients))
	for _, r := range recipients {
		keys = append(keys, c.genKey(r))
	}
	return keys
}

// Version returns the invalidation generations of every recipient the
// user's count is made of. A count read after Version may only be cached
// under that same version.
func (c *UnreadCounts) Version(ctx context.Context, userID string, role domain.Role) (string, error) {
	vals, err := c.client.MGet(ctx, c.genKeys(userID, role)...).Result()
	if err != nil {
		return "", fmt.Errorf("redis mget: %w", err)
	}
	return joinVersion(vals), nil
}

// setIfVersion compares the generations in KEYS[2..] against ARGV[1] before
// writing ARGV[2] to KEYS[1] with an optional PX of ARGV[3].
var setIfVersion = redis.NewScript(`
local parts = {}
for i = 2, #KEYS do
	local v = redis.call("GET", KEYS[i])
	if not v then v = "0" end
	parts[#parts + 1] = v
end
if table.concat(parts, ":") ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ttl)
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// SetIfVersion stores count unless an Invalidate touched one of the user's
// recipients since version was read. It reports whether the count was stored.
func (c *UnreadCounts) SetIfVersion(ctx context.Context, userID string, role domain.Role, count int, version string) (bool, error) {
	keys := append([]string{c.key(userID, role)}, c.genKeys(userID, role)...)
	stored, err := setIfVersion.Run(ctx, c.client, keys, version, count, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set if version: %w", err)
	}
	return stored == 1, nil
}

func joinVersion(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			s = "0"
		}
		parts[i] = s
	}
	return strings.Join(parts, ":")
}

// Invalidate drops every cached count that includes notifications addressed
// to recipient. The editor group touches all editor keys. The recipient's
// generation is bumped first so fills computed before the call are refused.
func (c *UnreadCounts) Invalidate(ctx context.Context, recipient domain.Recipient) error {
	if err := c.client.Incr(ctx, c.genKey(recipient)).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}

	if !recipient.IsEditorGroup() {
		keys := make([]string, 0, 2)
		for _, role := range []domain.Role{domain.RoleReporter, domain.RoleEditor} {
			keys = append(keys, c.key(recipient.UserID(), role))
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+string(domain.RoleEditor)+":*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan editor keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}

	return nil
}
