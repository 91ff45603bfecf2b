package session

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Revocations remembers signed-out token ids until the tokens would have
// expired anyway, so a signed-out JWT is refused by the API.
type Revocations struct {
	cache *cache.Cache
}

// NewRevocations creates an empty revocation list. Expired ids are purged every
// cleanupInterval.
func NewRevocations(cleanupInterval time.Duration) *Revocations {
	return &Revocations{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Revoke refuses tokenID until expiresAt. Already expired tokens are ignored.
func (r *Revocations) Revoke(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return
	}
	r.cache.Set(tokenID, struct{}{}, ttl)
}

// IsRevoked reports whether tokenID was signed out.
func (r *Revocations) IsRevoked(tokenID string) bool {
	_, found := r.cache.Get(tokenID)
	return found
}
