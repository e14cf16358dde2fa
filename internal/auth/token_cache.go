package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/logger"
)

const (
	// tokenKeyPrefix namespaces verified identities in Redis
	tokenKeyPrefix = "auth_token:"
	// TokenExpiryBuffer is how long before token expiry a cached identity stops being served
	TokenExpiryBuffer = 10 * time.Second
)

// CachedVerifier remembers verified identities in Redis so repeat requests
// with the same token skip signature verification.
type CachedVerifier struct {
	Next   Verifier
	Client *redis.Client
	MaxTTL time.Duration
	Logger *logger.Logger
}

func NewCachedVerifier(next Verifier, client *redis.Client, maxTTL time.Duration, log *logger.Logger) *CachedVerifier {
	return &CachedVerifier{Next: next, Client: client, MaxTTL: maxTTL, Logger: log}
}

func (c *CachedVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	key := tokenKeyPrefix + tokenDigest(rawToken)

	if identity, ok := c.lookup(ctx, key); ok {
		return identity, nil
	}

	identity, err := c.Next.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, identity)
	return identity, nil
}

func (c *CachedVerifier) lookup(ctx context.Context, key string) (*Identity, bool) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		c.Logger.Warn("AUTH", fmt.Sprintf("Token cache read failed: %v", err))
		return nil, false
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false
	}
	if !time.Now().Add(TokenExpiryBuffer).Before(identity.ExpiresAt) {
		return nil, false
	}
	return &identity, true
}

func (c *CachedVerifier) store(ctx context.Context, key string, identity *Identity) {
	ttl := time.Until(identity.ExpiresAt) - TokenExpiryBuffer
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.Logger.Warn("AUTH", fmt.Sprintf("Token cache write failed: %v", err))
	}
}

func tokenDigest(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
