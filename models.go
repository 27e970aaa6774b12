package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account record. The `token` column holds the current one-time
// verification/recovery token; it is nulled once consumed.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Verified       bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Token          *string    `bun:"token,nullzero" json:"-"`
	TokenCreatedAt *time.Time `bun:"token_created_at,nullzero" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// OneTimeToken returns the current token value, empty when consumed.
func (u *User) OneTimeToken() string {
	if u.Token == nil {
		return ""
	}
	return *u.Token
}

// SetOneTimeToken replaces the token and stamps its creation time.
func (u *User) SetOneTimeToken(token string) *User {
	now := time.Now()
	u.Token = &token
	u.TokenCreatedAt = &now
	return u
}

// ConsumeToken clears the one-time token so a captured link cannot be replayed.
func (u *User) ConsumeToken() *User {
	u.Token = nil
	u.TokenCreatedAt = nil
	return u
}
