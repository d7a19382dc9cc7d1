package redis

import "strings"

// Keyspace namespaces every key this backend writes so several environments
// can share one Redis database.
type Keyspace string

const DefaultKeyspace Keyspace = "fs"

func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.join("idempotency", scope, id)
}

func (k Keyspace) RateLimitKey(scope string) string {
	return k.join("rate_limit", scope)
}

// CounterKey is where NextSequence keeps a named counter.
func (k Keyspace) CounterKey(name string) string {
	return k.join("counter", name)
}

func (k Keyspace) AccessSessionKey(accessID string) string {
	return k.join("session", "access", accessID)
}

func (k Keyspace) LockKey(name string) string {
	return k.join("lock", name)
}

func (k Keyspace) join(parts ...string) string {
	ns := string(k)
	if ns == "" {
		ns = string(DefaultKeyspace)
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
