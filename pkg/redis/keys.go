package redis

import "strings"

const (
	keyNamespace      = "gc"
	idempotencyPrefix = "idempotency"
	cartPrefix        = "cart"
	profilePrefix     = "profile"
	lockPrefix        = "lock"
)

// IdempotencyKey -> gc:idempotency:<scope>:<id>
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// CartKey -> gc:cart:<consumer>, a hash of line items keyed by product id.
func (c *Client) CartKey(consumerID string) string {
	return buildKey(cartPrefix, consumerID)
}

// ProfileKey -> gc:profile:<consumer>
func (c *Client) ProfileKey(consumerID string) string {
	return buildKey(profilePrefix, consumerID)
}

// LockKey -> gc:lock:<scope>:<id>
func (c *Client) LockKey(scope, id string) string {
	return buildKey(lockPrefix, scope, id)
}

// Blank parts are skipped.
func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
