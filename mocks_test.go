package auth_test

import (
	"context"

	auth "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	var user *auth.User
	if u := args.Get(0); u != nil {
		user = u.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) ByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	var user *auth.User
	if u := args.Get(0); u != nil {
		user = u.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) ByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*auth.User, error) {
	args := m.Called(ctx, id, token)
	var user *auth.User
	if u := args.Get(0); u != nil {
		user = u.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	var saved *auth.User
	if u := args.Get(0); u != nil {
		saved = u.(*auth.User)
	}
	return saved, args.Error(1)
}

func (m *MockUserStore) RegenerateToken(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	var updated *auth.User
	if u := args.Get(0); u != nil {
		updated = u.(*auth.User)
	}
	return updated, args.Error(1)
}

// recorderNotifier captures emitted events
type recorderNotifier struct {
	events []auth.Event
	err    error
}

func (r *recorderNotifier) Notify(ctx context.Context, event auth.Event) error {
	r.events = append(r.events, event)
	return r.err
}

type bearerWrite struct {
	userID   uuid.UUID
	extended bool
}

// stubCredentials implements auth.Credentials for flow tests
type stubCredentials struct {
	bearers      []bearerWrite
	rememberFor  []uuid.UUID
	bearerValue  string
	rememberCred *auth.RememberCredential
	verifyOK     bool
	cleared      int
	writeErr     error
}

func (s *stubCredentials) WriteBearer(userID uuid.UUID, extended bool) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.bearers = append(s.bearers, bearerWrite{userID: userID, extended: extended})
	return nil
}

func (s *stubCredentials) WriteRemember(user *auth.User) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.rememberFor = append(s.rememberFor, user.ID)
	return nil
}

func (s *stubCredentials) ReadBearer() (string, bool) {
	return s.bearerValue, s.bearerValue != ""
}

func (s *stubCredentials) ReadRemember() (*auth.RememberCredential, bool) {
	return s.rememberCred, s.rememberCred != nil
}

func (s *stubCredentials) VerifyRemember(rc *auth.RememberCredential, user *auth.User) bool {
	return s.verifyOK
}

func (s *stubCredentials) Clear() {
	s.cleared++
	s.bearerValue = ""
	s.rememberCred = nil
}

// quietLogger silences flow logging in tests
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// testConfig implements auth.Config
type testConfig struct {
	signingKey string
	expiration int
	extended   int
}

func (c testConfig) GetSigningKey() string          { return c.signingKey }
func (c testConfig) GetTokenExpiration() int        { return c.expiration }
func (c testConfig) GetExtendedTokenDuration() int  { return c.extended }
func (c testConfig) GetIssuer() string              { return "test-issuer" }
func (c testConfig) GetAudience() []string          { return nil }
func (c testConfig) GetContextKey() string          { return "jwt" }
func (c testConfig) GetRememberKey() string         { return "remember" }
func (c testConfig) GetRejectedRouteKey() string    { return "rejected-route" }
func (c testConfig) GetRejectedRouteDefault() string { return "/" }
