package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RememberCredential is the persistent cookie payload enabling silent
// re-authentication across browsing sessions. The snapshot is an HMAC of the
// stored password hash, so it carries no password material and is invalidated
// by any password change.
type RememberCredential struct {
	UserID    uuid.UUID `json:"user_id"`
	Snapshot  string    `json:"snapshot"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the credential is past its own expiration
func (rc *RememberCredential) Expired() bool {
	return time.Now().After(rc.ExpiresAt)
}

// EncodeRememberCredential serializes the credential for cookie transport
func EncodeRememberCredential(rc *RememberCredential) (string, error) {
	b, err := json.Marshal(rc)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode remember credential")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeRememberCredential parses a cookie value back into a credential
func DecodeRememberCredential(val string) (*RememberCredential, error) {
	b, err := base64.RawURLEncoding.DecodeString(val)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "failed to decode remember credential")
	}
	rc := &RememberCredential{}
	if err := json.Unmarshal(b, rc); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "failed to parse remember credential")
	}
	return rc, nil
}

// CredentialStore reads and writes the two cookie-backed credentials: the
// signed bearer cookie and the persistent remember cookie. Each inbound
// request gets its own view through Bind.
type CredentialStore struct {
	tokens           TokenService
	signingKey       []byte
	bearerKey        string
	rememberKey      string
	rememberDuration time.Duration
	logger           Logger
}

// NewCredentialStore creates the store from config; the signing key is also
// the remember-snapshot MAC key.
func NewCredentialStore(tokens TokenService, cfg Config) (*CredentialStore, error) {
	if cfg.GetSigningKey() == "" {
		return nil, ErrMissingSigningKey
	}

	bearerKey := cfg.GetContextKey()
	if bearerKey == "" {
		bearerKey = "jwt"
	}

	rememberKey := cfg.GetRememberKey()
	if rememberKey == "" {
		rememberKey = "remember"
	}

	return &CredentialStore{
		tokens:           tokens,
		signingKey:       []byte(cfg.GetSigningKey()),
		bearerKey:        bearerKey,
		rememberKey:      rememberKey,
		rememberDuration: tokens.ExtendedDuration(),
		logger:           defLogger{},
	}, nil
}

// WithLogger overrides the logger used by the store
func (cs *CredentialStore) WithLogger(logger Logger) *CredentialStore {
	if logger != nil {
		cs.logger = logger
	}
	return cs
}

// RememberSnapshot derives the opaque re-authentication secret from the
// stored password hash
func (cs *CredentialStore) RememberSnapshot(passwordHash string) string {
	mac := hmac.New(sha256.New, cs.signingKey)
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRememberSnapshot checks a presented snapshot against the user's
// current password hash in constant time
func (cs *CredentialStore) VerifyRememberSnapshot(rc *RememberCredential, user *User) bool {
	if rc == nil || user == nil {
		return false
	}
	expected := cs.RememberSnapshot(user.PasswordHash)
	return hmac.Equal([]byte(expected), []byte(rc.Snapshot))
}

// Bind returns the request-scoped credential view
func (cs *CredentialStore) Bind(ctx router.Context) Credentials {
	return &boundCredentials{store: cs, ctx: ctx}
}

type boundCredentials struct {
	store *CredentialStore
	ctx   router.Context
}

var _ Credentials = (*boundCredentials)(nil)

func (b *boundCredentials) WriteBearer(userID uuid.UUID, extended bool) error {
	ttl := b.store.tokens.DefaultDuration()
	if extended {
		ttl = b.store.tokens.ExtendedDuration()
	}

	token, err := b.store.tokens.IssueBearerToken(userID, ttl)
	if err != nil {
		return err
	}

	b.cookieSet(b.store.bearerKey, token, ttl)
	return nil
}

func (b *boundCredentials) WriteRemember(user *User) error {
	rc := &RememberCredential{
		UserID:    user.ID,
		Snapshot:  b.store.RememberSnapshot(user.PasswordHash),
		ExpiresAt: time.Now().Add(b.store.rememberDuration),
	}

	val, err := EncodeRememberCredential(rc)
	if err != nil {
		return err
	}

	b.cookieSet(b.store.rememberKey, val, b.store.rememberDuration)
	return nil
}

func (b *boundCredentials) ReadBearer() (string, bool) {
	val := b.ctx.Cookies(b.store.bearerKey)
	return val, val != ""
}

func (b *boundCredentials) ReadRemember() (*RememberCredential, bool) {
	val := b.ctx.Cookies(b.store.rememberKey)
	if val == "" {
		return nil, false
	}

	rc, err := DecodeRememberCredential(val)
	if err != nil {
		b.store.logger.Warn("discarding undecodable remember credential", "error", err)
		return nil, false
	}

	if rc.Expired() {
		return nil, false
	}

	return rc, true
}

func (b *boundCredentials) VerifyRemember(rc *RememberCredential, user *User) bool {
	return b.store.VerifyRememberSnapshot(rc, user)
}

// Clear deletes both credentials. Used at signout together with Session.Clear.
func (b *boundCredentials) Clear() {
	b.cookieDel(b.store.bearerKey)
	b.cookieDel(b.store.rememberKey)
}

func (b *boundCredentials) cookieSet(name, val string, duration time.Duration) {
	b.ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (b *boundCredentials) cookieDel(name string) {
	b.ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
