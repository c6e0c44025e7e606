package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/protocol"
)

// Scope is a capability category a token authorizes.
type Scope string

const (
	ScopeChat      Scope = "chat"
	ScopeBroadcast Scope = "broadcast"
	ScopeFollow    Scope = "follow"
	ScopeFile      Scope = "file"
	ScopeGroup     Scope = "group"
	ScopeGame      Scope = "game"
)

var (
	ErrRevoked       = errors.New("token has been revoked")
	ErrMalformed     = errors.New("token is malformed")
	ErrExpired       = errors.New("token has expired")
	ErrScopeMismatch = errors.New("token scope mismatch")
)

// Claims are the three parts of a wire token.
type Claims struct {
	Subject string
	Expiry  int64 // unix seconds
	Scope   Scope
}

// String serializes claims to the wire form "subject|expiry|scope".
func (c Claims) String() string {
	return fmt.Sprintf("%s|%d|%s", c.Subject, c.Expiry, c.Scope)
}

// ParseClaims splits a wire token into its parts. It checks shape only;
// expiry and revocation are the Authority's concern.
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformed, len(parts))
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: bad expiry %q", ErrMalformed, parts[1])
	}
	scope := Scope(parts[2])
	if !validScope(scope) {
		return Claims{}, fmt.Errorf("%w: unknown scope %q", ErrMalformed, parts[2])
	}
	return Claims{Subject: parts[0], Expiry: expiry, Scope: scope}, nil
}

func validScope(s Scope) bool {
	switch s {
	case ScopeChat, ScopeBroadcast, ScopeFollow, ScopeFile, ScopeGroup, ScopeGame:
		return true
	}
	return false
}

// Scope issue lifetimes. Presence and posts are short-lived, follow and
// group grants last a day, transfers and games span a session.
var scopeTTLs = map[Scope]time.Duration{
	ScopeChat:      time.Hour,
	ScopeBroadcast: time.Hour,
	ScopeFollow:    24 * time.Hour,
	ScopeGroup:     24 * time.Hour,
	ScopeFile:      2 * time.Hour,
	ScopeGame:      2 * time.Hour,
}

// DefaultTTL returns the issue lifetime for a scope.
func DefaultTTL(scope Scope) time.Duration {
	if ttl, ok := scopeTTLs[scope]; ok {
		return ttl
	}
	return time.Hour
}

// requiredScopes maps each authorization-requiring message type to the
// single scope its token must carry.
var requiredScopes = map[string]Scope{
	protocol.MsgTypeProfile: ScopeBroadcast,
	protocol.MsgTypePost:    ScopeBroadcast,
	protocol.MsgTypeLike:    ScopeBroadcast,

	protocol.MsgTypeDM: ScopeChat,

	protocol.MsgTypeFollow:   ScopeFollow,
	protocol.MsgTypeUnfollow: ScopeFollow,

	protocol.MsgTypeFileOffer: ScopeFile,
	protocol.MsgTypeFileChunk: ScopeFile,

	protocol.MsgTypeGroupCreate:  ScopeGroup,
	protocol.MsgTypeGroupUpdate:  ScopeGroup,
	protocol.MsgTypeGroupMessage: ScopeGroup,

	protocol.MsgTypeTicTacToeInvite: ScopeGame,
	protocol.MsgTypeTicTacToeMove:   ScopeGame,
	protocol.MsgTypeTicTacToeResult: ScopeGame,
}

// RequiredScope returns the scope a message type needs and whether it
// needs one at all. PING, ACK, REVOKE and FILE_RECEIVED carry no token.
func RequiredScope(msgType string) (Scope, bool) {
	scope, ok := requiredScopes[msgType]
	return scope, ok
}
