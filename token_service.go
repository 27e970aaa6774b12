package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const oneTimeTokenBytes = 32

// GenerateOneTimeToken produces a cryptographically random opaque token.
// 32 bytes of entropy keeps the collision probability negligible for any
// realistic user population.
func GenerateOneTimeToken() (string, error) {
	buf := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token entropy")
	}
	return hex.EncodeToString(buf), nil
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey         []byte
	tokenExpiration    int
	extendedExpiration int
	issuer             string
	audience           jwt.ClaimStrings
	logger             Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance. An empty signing key
// is a startup error, never a silent fallback to unsigned tokens.
func NewTokenService(signingKey []byte, tokenExpiration, extendedExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) (*TokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	if logger == nil {
		logger = defLogger{}
	}

	if tokenExpiration <= 0 {
		tokenExpiration = 24
	}

	if extendedExpiration <= 0 {
		extendedExpiration = tokenExpiration
	}

	return &TokenServiceImpl{
		signingKey:         signingKey,
		tokenExpiration:    tokenExpiration,
		extendedExpiration: extendedExpiration,
		issuer:             issuer,
		audience:           audience,
		logger:             logger,
	}, nil
}

// NewTokenServiceFromConfig builds a TokenService from a Config instance
func NewTokenServiceFromConfig(cfg Config, logger Logger) (*TokenServiceImpl, error) {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetExtendedTokenDuration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
}

// GenerateOneTimeToken produces a random one-time verification/recovery token
func (ts *TokenServiceImpl) GenerateOneTimeToken() (string, error) {
	return GenerateOneTimeToken()
}

// DefaultDuration is the browsing-session bearer token lifetime
func (ts *TokenServiceImpl) DefaultDuration() time.Duration {
	return time.Duration(ts.tokenExpiration) * time.Hour
}

// ExtendedDuration is the remember-me bearer token lifetime
func (ts *TokenServiceImpl) ExtendedDuration() time.Duration {
	return time.Duration(ts.extendedExpiration) * time.Hour
}

// IssueBearerToken builds and signs `{uid, exp}` claims with the process key
func (ts *TokenServiceImpl) IssueBearerToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = ts.DefaultDuration()
	}

	now := time.Now()
	claims := &BearerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID: userID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign bearer token")
	}

	return signed, nil
}

// VerifyBearerToken parses and validates a signed bearer token, rejecting
// tampered, undecodable, or expired payloads.
func (ts *TokenServiceImpl) VerifyBearerToken(raw string) (*BearerClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &BearerClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*BearerClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService verify could not decode or validate claims")
	return nil, ErrTokenMalformed
}
