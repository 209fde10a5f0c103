package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/taskauth/internal/dependencies/clock"
	"github.com/mcoot/taskauth/internal/model"
)

// SessionsConfig holds configuration for token issuance
type SessionsConfig struct {
	// Secret is the HMAC key all tokens are signed with
	Secret []byte
	// TokenTTL is how long an issued token stays valid
	TokenTTL time.Duration
	// Issuer is written to and required in the iss claim
	Issuer string
}

// DefaultSessionsConfig returns default session configuration without a secret
func DefaultSessionsConfig() SessionsConfig {
	return SessionsConfig{
		TokenTTL: 24 * time.Hour,
		Issuer:   "taskauth",
	}
}

// Claim is the identity carried by a verified token
type Claim struct {
	ID        model.UserID
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is a signed bearer token and the claim it encodes
type Token struct {
	Value string
	Claim Claim
}

// tokenClaims is the JWT payload
type tokenClaims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies stateless bearer tokens. It never touches
// the user store; a verified claim reflects the user as of issuance.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	issuer string
	clock  clock.Clock
	parser *jwt.Parser
}

// NewSessions creates a Sessions component
func NewSessions(cfg SessionsConfig, clk clock.Clock) (*Sessions, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session signing secret is empty")
	}
	defaults := DefaultSessionsConfig()
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}

	return &Sessions{
		secret: cfg.Secret,
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// TTL returns the lifetime of issued tokens
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the user
func (s *Sessions) Issue(user model.PublicUser) (*Token, error) {
	issuedAt := jwt.NewNumericDate(s.clock.Now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(s.ttl))

	claims := tokenClaims{
		UserID:   int64(user.ID),
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(int64(user.ID), 10),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Token{
		Value: value,
		Claim: claimFrom(&claims),
	}, nil
}

// Verify checks the token's signature and expiry and returns its claim.
// Every failure other than an empty token is ErrInvalidToken.
func (s *Sessions) Verify(token string) (*Claim, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var claims tokenClaims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	claim := claimFrom(&claims)
	return &claim, nil
}

// VerifyHeader verifies the token in an Authorization header value
func (s *Sessions) VerifyHeader(header string) (*Claim, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return s.Verify(token)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func claimFrom(c *tokenClaims) Claim {
	claim := Claim{
		ID:       model.UserID(c.UserID),
		Username: c.Username,
		Email:    c.Email,
	}
	if c.IssuedAt != nil {
		claim.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		claim.ExpiresAt = c.ExpiresAt.UTC()
	}
	return claim
}
