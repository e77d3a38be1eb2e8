package utils

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/mediadesk/config"
)

// Identity is what a verified bearer token asserts about the caller.
type Identity struct {
	UID       string
	Email     string
	ExpiresAt time.Time
}

// IdentityVerifier turns a bearer token into an Identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

var ErrInvalidToken = errors.New("invalid token")

// JWTVerifier checks RS256 tokens against a public key, or HS256 tokens against a shared secret.
type JWTVerifier struct {
	key    interface{}
	parser *jwt.Parser
}

// NewJWTVerifier picks RS256 when a public key path is configured and HS256 otherwise.
func NewJWTVerifier(cfg config.AuthSection) (*JWTVerifier, error) {
	if cfg.PublicKeyPath != "" {
		b, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		return NewRSAVerifier(pub, cfg.Issuer, cfg.Audience), nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("no token verification key configured")
	}
	return NewHMACVerifier([]byte(cfg.JWTSecret), cfg.Issuer, cfg.Audience), nil
}

func NewRSAVerifier(pub *rsa.PublicKey, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{key: pub, parser: newParser([]string{"RS256"}, issuer, audience)}
}

func NewHMACVerifier(secret []byte, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{key: secret, parser: newParser([]string{"HS256"}, issuer, audience)}
}

func newParser(methods []string, issuer, audience string) *jwt.Parser {
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return jwt.NewParser(opts...)
}

// Verify validates the signature and registered claims, then extracts the uid
// from user_id, uid or sub, in that order.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id := &Identity{}
	for _, k := range []string{"user_id", "uid", "sub"} {
		if s, ok := claims[k].(string); ok && s != "" {
			id.UID = s
			break
		}
	}
	if id.UID == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	id.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// GenerateToken issues an HS256 token for uid. The console never issues tokens
// itself; this serves local tooling and tests.
func GenerateToken(secret []byte, uid, email string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(duration).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
