// Package token issues and verifies the signed, time-limited tokens used for
// public quote links and password resets. Both flows share one HMAC secret
// and one verification primitive.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification errors. ErrExpired wraps the underlying parser message so
// handlers can surface it.
var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

const (
	// DefaultQuoteTTL is the quote access token lifetime unless the caller
	// overrides it.
	DefaultQuoteTTL = 7 * 24 * time.Hour
	// ResetTTL is fixed; password reset links are short-lived.
	ResetTTL = 15 * time.Minute
)

// Signer issues and verifies tokens with a shared HS256 secret. Tokens are
// not revocable before expiry except by rotating the secret; quote tokens are
// additionally cross-checked against the stored access_token column by the
// quote service.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

// QuoteClaims is the payload of a public quote access token.
type QuoteClaims struct {
	QuoteID string `json:"quote_id"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload of a password reset token.
type ResetClaims struct {
	UserID   string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueQuoteToken signs an access token for a quote. ttl <= 0 falls back to
// DefaultQuoteTTL. The returned time is the embedded expiry claim.
func (s *Signer) IssueQuoteToken(quoteID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := QuoteClaims{
		QuoteID: quoteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign quote token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyQuoteToken checks signature and expiry and returns the claims.
func (s *Signer) VerifyQuoteToken(tokenString string) (*QuoteClaims, error) {
	claims := &QuoteClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeQuoteToken verifies the signature but skips claim validation, so the
// expiry embedded in an already-expired token can still be read. Used by the
// expiration backfill, never for access decisions.
func (s *Signer) DecodeQuoteToken(tokenString string) (*QuoteClaims, error) {
	claims := &QuoteClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// IssueResetToken signs a 15-minute password reset token carrying the user's
// profile snapshot.
func (s *Signer) IssueResetToken(u *entity.User) (string, error) {
	now := time.Now()

	claims := ResetClaims{
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTTL)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// VerifyResetToken checks signature and expiry only. There is no server-side
// revocation list for reset tokens.
func (s *Signer) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Signer) parse(tokenString string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !tok.Valid {
		return ErrInvalid
	}
	return nil
}
