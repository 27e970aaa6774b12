package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options. The signing key is loaded once at startup and
// read-only thereafter; rotation happens via redeploy.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetRememberKey() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// TokenService issues and verifies the two token kinds: random one-time
// tokens bound to a user record, and signed self-contained bearer tokens.
type TokenService interface {
	GenerateOneTimeToken() (string, error)
	IssueBearerToken(userID uuid.UUID, ttl time.Duration) (string, error)
	VerifyBearerToken(raw string) (*BearerClaims, error)
	DefaultDuration() time.Duration
	ExtendedDuration() time.Duration
}

// UserStore is the persistence contract the flow depends on. Implementations
// must guarantee per-record atomicity for Save and RegenerateToken.
type UserStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// ByIDAndToken resolves a user matching both values in a single lookup,
	// never as two sequential queries.
	ByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
	// RegenerateToken atomically installs a fresh one-time token and returns
	// the updated record.
	RegenerateToken(ctx context.Context, user *User) (*User, error)
}

// Credentials is the request-bound view of the cookie-backed credential
// store: the signed bearer cookie and the persistent remember cookie.
type Credentials interface {
	WriteBearer(userID uuid.UUID, extended bool) error
	WriteRemember(user *User) error
	ReadBearer() (string, bool)
	ReadRemember() (*RememberCredential, bool)
	// VerifyRemember checks a presented remember credential against the
	// user's current password hash.
	VerifyRemember(rc *RememberCredential, user *User) bool
	Clear()
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
