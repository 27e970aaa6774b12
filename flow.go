package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// oneTimeTokenMaxAge bounds how long a verification/recovery link stays valid.
const oneTimeTokenMaxAge = "24h"

// dummyPasswordHash is compared against when signin hits an unknown email, so
// the missing-user path costs a bcrypt comparison like the mismatch path.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Flow orchestrates the account lifecycle: signup, signin, signout, edit,
// email verification and recovery-token issuance. From one client's view a
// user moves Anonymous -> Authenticated(unverified) -> Authenticated(verified);
// signout returns to Anonymous regardless of verification state.
type Flow struct {
	store    UserStore
	tokens   TokenService
	notifier Notifier
	logger   Logger
}

// NewFlow creates a flow with sane defaults.
func NewFlow(store UserStore, tokens TokenService) *Flow {
	return &Flow{
		store:    store,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}
}

// WithNotifier sets the sink consuming signup/verification/recovery events.
func (f *Flow) WithNotifier(n Notifier) *Flow {
	f.notifier = normalizeNotifier(n)
	return f
}

// WithLogger overrides the logger used by the flow.
func (f *Flow) WithLogger(logger Logger) *Flow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Signup creates a new unverified account and establishes the session. On
// failure the session is left untouched; the caller never transitions to
// Authenticated on a failed save.
func (f *Flow) Signup(ctx context.Context, sess *Session, msg SignupMessage) (*User, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup payload")
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Username:     getUsername(msg.Username, msg.Email),
		Email:        msg.Email,
		Phone:        msg.Phone,
		PasswordHash: hash,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			user.ID = id
		}
	}

	created, err := f.store.Save(ctx, user)
	if err != nil {
		f.logger.Error("Signup save error", "email", msg.Email, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	sess.SetUser(created)
	f.emit(ctx, EventAfterSignup, created)

	return created, nil
}

// Signin verifies credentials and establishes the session. A bearer token is
// always issued; when remember is requested the bearer uses the extended TTL
// and a remember credential is written alongside it, keeping browser-session
// and remember-me trust durations consistent. Failures never reveal whether
// the email or the password was wrong.
func (f *Flow) Signin(ctx context.Context, sess *Session, creds Credentials, msg SigninMessage) (*User, error) {
	user, err := f.store.ByEmail(ctx, msg.Email)
	if err != nil {
		if IsNotFoundError(err) {
			ComparePasswordAndHash(msg.Password, dummyPasswordHash)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(msg.Password, user.PasswordHash); err != nil {
		f.logger.Info("Signin rejected", "user", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := creds.WriteBearer(user.ID, msg.Remember); err != nil {
		return nil, err
	}

	if msg.Remember {
		if err := creds.WriteRemember(user); err != nil {
			return nil, err
		}
	}

	sess.SetUser(user)
	f.trackLogin(ctx, user)

	return user, nil
}

// Signout destroys the session and deletes both credentials. Calling it with
// no active session is a no-op, not an error.
func (f *Flow) Signout(sess *Session, creds Credentials) {
	sess.Clear()
	if creds != nil {
		creds.Clear()
	}
}

// Update applies a patch to the authenticated user's record. The session is
// re-established on success since a password change may invalidate caller
// assumptions; on failure the prior session state is left untouched.
func (f *Flow) Update(ctx context.Context, sess *Session, msg UpdateMessage) (*User, error) {
	id, ok := sess.CurrentUser()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid update payload")
	}

	user, err := f.store.ByID(ctx, id)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if msg.FirstName != "" {
		user.FirstName = msg.FirstName
	}
	if msg.LastName != "" {
		user.LastName = msg.LastName
	}
	if msg.Phone != "" {
		user.Phone = msg.Phone
	}
	if msg.Password != "" {
		hash, err := HashPassword(msg.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}
		user.PasswordHash = hash
	}

	updated, err := f.store.Save(ctx, user)
	if err != nil {
		f.logger.Error("Update save error", "user", id, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "could not update account")
	}

	sess.SetUser(updated)
	return updated, nil
}

// Verify proves an email address belongs to the user. The lookup matches id
// and token in a single query, so an attacker cannot confirm an id exists and
// brute-force the token against it separately. The consumed token is nulled
// inside the same save that flips the verified flag.
func (f *Flow) Verify(ctx context.Context, sess *Session, id uuid.UUID, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	user, err := f.store.ByIDAndToken(ctx, id, token)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if user.TokenCreatedAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.TokenCreatedAt, oneTimeTokenMaxAge)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token age")
		}
		if expired {
			return nil, ErrTokenExpired
		}
	}

	user.Verified = true
	user.ConsumeToken()

	updated, err := f.store.Save(ctx, user)
	if err != nil {
		f.logger.Error("Verify save error", "user", id, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist verification")
	}

	sess.SetUser(updated)
	return updated, nil
}

// SendVerification regenerates the one-time token for the authenticated user
// and emits a notification so a fresh verification mail goes out.
func (f *Flow) SendVerification(ctx context.Context, sess *Session) error {
	id, ok := sess.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}

	user, err := f.store.ByID(ctx, id)
	if err != nil {
		if IsNotFoundError(err) {
			return ErrNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	updated, err := f.store.RegenerateToken(ctx, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not regenerate token")
	}

	f.emit(ctx, EventSendVerification, updated)
	return nil
}

// SendRecovery issues a password-recovery token for the given email. An
// unknown email is a silent no-op so the outcome never leaks which addresses
// are registered.
func (f *Flow) SendRecovery(ctx context.Context, email string) error {
	user, err := f.store.ByEmail(ctx, email)
	if err != nil {
		if IsNotFoundError(err) {
			f.logger.Debug("SendRecovery for unknown email", "email", email)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	updated, err := f.store.RegenerateToken(ctx, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not regenerate token")
	}

	f.emit(ctx, EventSendRecovery, updated)
	return nil
}

// Resume silently re-authenticates a revisiting client: the signed bearer
// cookie is tried first, then the remember credential checked against the
// stored password hash. A successful remember resume refreshes the bearer.
func (f *Flow) Resume(ctx context.Context, sess *Session, creds Credentials) (*User, error) {
	if raw, ok := creds.ReadBearer(); ok {
		claims, err := f.tokens.VerifyBearerToken(raw)
		if err == nil {
			if id, err := claims.UserUUID(); err == nil {
				user, err := f.store.ByID(ctx, id)
				if err == nil {
					sess.SetUser(user)
					return user, nil
				}
			}
		}
		f.logger.Debug("Resume bearer rejected, trying remember credential")
	}

	rc, ok := creds.ReadRemember()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	user, err := f.store.ByID(ctx, rc.UserID)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	if !creds.VerifyRemember(rc, user) {
		return nil, ErrNotAuthenticated
	}

	if err := creds.WriteBearer(user.ID, true); err != nil {
		return nil, err
	}

	sess.SetUser(user)
	return user, nil
}

func (f *Flow) trackLogin(ctx context.Context, user *User) {
	now := time.Now()
	user.LoggedInAt = &now
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil

	if _, err := f.store.Save(ctx, user); err != nil {
		f.logger.Warn("failed to track login", "user", user.ID, "error", err)
	}
}

func (f *Flow) emit(ctx context.Context, eventType EventType, user *User) {
	event := Event{
		Type:       eventType,
		User:       user,
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	}

	if err := normalizeNotifier(f.notifier).Notify(ctx, event); err != nil {
		f.logger.Warn("notifier error", "event", eventType, "error", err)
	}
}
