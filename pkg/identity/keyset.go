package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet manages active signing keys and verification of past keys,
// supporting key rotation without downtime.
type KeySet interface {
	// Sign creates a signed token with the current active key.
	Sign(ctx context.Context, claims jwt.Claims) (string, error)
	// KeyFunc returns the key for verification based on the token header.
	KeyFunc() jwt.Keyfunc
}

// Retired keys stay verifiable at least this long so tokens issued
// just before a rotation do not die early. Must exceed the longest
// token lifetime handed out.
const defaultRetention = 24 * time.Hour

type signingKey struct {
	private ed25519.PrivateKey
	created time.Time
}

// InMemoryKeySet holds Ed25519 keys in memory, the current one for
// signing and retired ones for verification until they age out.
type InMemoryKeySet struct {
	mu        sync.RWMutex
	current   string
	serial    uint64
	keys      map[string]signingKey
	retention time.Duration
	clock     func() time.Time
}

func NewInMemoryKeySet() (*InMemoryKeySet, error) {
	ks := &InMemoryKeySet{
		keys:      make(map[string]signingKey),
		retention: defaultRetention,
		clock:     time.Now,
	}
	if err := ks.Rotate(); err != nil {
		return nil, err
	}
	return ks, nil
}

// WithClock overrides the clock for deterministic testing.
func (ks *InMemoryKeySet) WithClock(clock func() time.Time) *InMemoryKeySet {
	ks.clock = clock
	return ks
}

// Rotate generates a fresh signing key and makes it current. Retired
// keys past the retention window are evicted.
func (ks *InMemoryKeySet) Rotate() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	now := ks.clock()
	ks.serial++
	kid := fmt.Sprintf("warden-%d", ks.serial)
	ks.keys[kid] = signingKey{private: privateKey, created: now}
	ks.current = kid

	cutoff := now.Add(-ks.retention)
	for id, k := range ks.keys {
		if id != kid && k.created.Before(cutoff) {
			delete(ks.keys, id)
		}
	}
	return nil
}

func (ks *InMemoryKeySet) Sign(ctx context.Context, claims jwt.Claims) (string, error) {
	ks.mu.RLock()
	key, ok := ks.keys[ks.current]
	kid := ks.current
	ks.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("no active key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(key.private)
}

func (ks *InMemoryKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing kid in header")
		}

		ks.mu.RLock()
		defer ks.mu.RUnlock()
		key, exists := ks.keys[kid]
		if !exists {
			return nil, fmt.Errorf("key not found: %s", kid)
		}

		return key.private.Public(), nil
	}
}
