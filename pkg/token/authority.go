package token

import (
	"sync"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/crypto"
)

// DefaultRevocationCap bounds the revocation set. When full, the oldest
// revocation is evicted first.
const DefaultRevocationCap = 1000

type revocation struct {
	digest    string
	revokedAt time.Time
	expiry    int64 // the token's own natural expiry
}

// Authority issues, validates and revokes capability tokens for one
// peer. Validation is called from the transport receive path while
// revocations arrive from user actions and REVOKE broadcasts, so all
// state sits behind one mutex.
type Authority struct {
	mu      sync.Mutex
	revoked map[string]bool // token digests
	order   []revocation    // oldest first
	cap     int
	now     func() time.Time
}

// NewAuthority creates an authority with the default revocation cap.
func NewAuthority() *Authority {
	return &Authority{
		revoked: make(map[string]bool),
		cap:     DefaultRevocationCap,
		now:     time.Now,
	}
}

// Create issues a token for subject with the given scope. A zero or
// negative ttl falls back to the scope's default lifetime.
func (a *Authority) Create(subject string, scope Scope, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultTTL(scope)
	}
	c := Claims{
		Subject: subject,
		Expiry:  a.now().Add(ttl).Unix(),
		Scope:   scope,
	}
	return c.String()
}

// Validate checks a wire token and returns its claims. The check order
// is fixed: revocation, then format, then expiry, then scope. A zero
// want skips the scope comparison. Validate always returns a definite
// outcome; the error is one of ErrRevoked, ErrMalformed, ErrExpired,
// ErrScopeMismatch.
func (a *Authority) Validate(tok string, want Scope) (Claims, error) {
	if a.IsRevoked(tok) {
		return Claims{}, ErrRevoked
	}
	c, err := ParseClaims(tok)
	if err != nil {
		return Claims{}, err
	}
	if a.now().Unix() > c.Expiry {
		return Claims{}, ErrExpired
	}
	if want != "" && c.Scope != want {
		return c, ErrScopeMismatch
	}
	return c, nil
}

// Revoke adds a token to the revocation set. The exact token string is
// digested; a later Validate of the same string fails with ErrRevoked
// even though the token has not expired. Revoking twice is a no-op.
func (a *Authority) Revoke(tok string) {
	digest := crypto.TokenDigest(tok)

	// Natural expiry bounds how long the revocation must be remembered.
	// For an unparsable token keep it for a day.
	expiry := a.now().Add(24 * time.Hour).Unix()
	if c, err := ParseClaims(tok); err == nil {
		expiry = c.Expiry
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.revoked[digest] {
		return
	}
	if len(a.order) >= a.cap {
		delete(a.revoked, a.order[0].digest)
		a.order = a.order[1:]
	}
	a.revoked[digest] = true
	a.order = append(a.order, revocation{digest: digest, revokedAt: a.now(), expiry: expiry})
}

// IsRevoked reports whether the exact token string has been revoked.
func (a *Authority) IsRevoked(tok string) bool {
	digest := crypto.TokenDigest(tok)

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.revoked[digest]
}

// Sweep drops revocations whose token has passed its natural expiry;
// an expired token fails validation anyway, so there is nothing left
// to deny. Returns the number removed.
func (a *Authority) Sweep() int {
	now := a.now().Unix()

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.order[:0]
	removed := 0
	for _, r := range a.order {
		if now > r.expiry {
			delete(a.revoked, r.digest)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	a.order = kept
	return removed
}

// RevokedCount returns the size of the revocation set.
func (a *Authority) RevokedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}
