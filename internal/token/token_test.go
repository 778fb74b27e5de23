package token

import (
	"errors"
	"testing"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func testSigner() *Signer {
	return NewSigner(testSecret, "interdeco-backoffice")
}

// expiredQuoteToken signs a quote token whose expiry is already in the past.
func expiredQuoteToken(t *testing.T, secret, quoteID string, expiredAgo time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := QuoteClaims{
		QuoteID: quoteID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-expiredAgo - time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-expiredAgo)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestQuoteTokenRoundTrip(t *testing.T) {
	s := testSigner()

	signed, expiresAt, err := s.IssueQuoteToken("quote-001", time.Hour)
	if err != nil {
		t.Fatalf("IssueQuoteToken failed: %v", err)
	}

	claims, err := s.VerifyQuoteToken(signed)
	if err != nil {
		t.Fatalf("VerifyQuoteToken failed: %v", err)
	}
	if claims.QuoteID != "quote-001" {
		t.Errorf("QuoteID = %q, want quote-001", claims.QuoteID)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("missing expiry claim")
	}
	if !claims.ExpiresAt.Time.Truncate(time.Second).Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("expiry claim %v does not match returned expiry %v",
			claims.ExpiresAt.Time, expiresAt)
	}
}

func TestQuoteTokenDefaultTTL(t *testing.T) {
	s := testSigner()

	_, expiresAt, err := s.IssueQuoteToken("quote-001", 0)
	if err != nil {
		t.Fatalf("IssueQuoteToken failed: %v", err)
	}

	want := time.Now().Add(DefaultQuoteTTL)
	if d := expiresAt.Sub(want); d < -time.Minute || d > time.Minute {
		t.Errorf("default expiry %v, want about %v", expiresAt, want)
	}
}

func TestVerifyQuoteTokenExpired(t *testing.T) {
	s := testSigner()
	signed := expiredQuoteToken(t, testSecret, "quote-001", time.Hour)

	_, err := s.VerifyQuoteToken(signed)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expired token error = %v, want ErrExpired", err)
	}
}

func TestVerifyQuoteTokenWrongSecret(t *testing.T) {
	other := NewSigner("another-secret", "interdeco-backoffice")
	signed, _, err := other.IssueQuoteToken("quote-001", time.Hour)
	if err != nil {
		t.Fatalf("IssueQuoteToken failed: %v", err)
	}

	_, err = testSigner().VerifyQuoteToken(signed)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("wrong-secret error = %v, want ErrInvalid", err)
	}
}

func TestVerifyQuoteTokenMalformed(t *testing.T) {
	s := testSigner()
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := s.VerifyQuoteToken(tok); !errors.Is(err, ErrInvalid) {
			t.Errorf("token %q: error = %v, want ErrInvalid", tok, err)
		}
	}
}

// The backfill needs the expiry claim out of tokens that no longer pass
// validation.
func TestDecodeQuoteTokenExpired(t *testing.T) {
	s := testSigner()
	signed := expiredQuoteToken(t, testSecret, "quote-001", 48*time.Hour)

	claims, err := s.DecodeQuoteToken(signed)
	if err != nil {
		t.Fatalf("DecodeQuoteToken failed on expired token: %v", err)
	}
	if claims.QuoteID != "quote-001" {
		t.Errorf("QuoteID = %q, want quote-001", claims.QuoteID)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.Before(time.Now()) {
		t.Errorf("expected a past expiry claim, got %v", claims.ExpiresAt)
	}
}

func TestDecodeQuoteTokenWrongSecret(t *testing.T) {
	signed := expiredQuoteToken(t, "another-secret", "quote-001", time.Hour)

	if _, err := testSigner().DecodeQuoteToken(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("wrong-secret decode error = %v, want ErrInvalid", err)
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	s := testSigner()
	user := &entity.User{
		ID:       "user-001",
		FullName: "Maria Lopez",
		Email:    "maria@example.com",
		Role:     entity.RoleSeller,
	}

	signed, err := s.IssueResetToken(user)
	if err != nil {
		t.Fatalf("IssueResetToken failed: %v", err)
	}

	claims, err := s.VerifyResetToken(signed)
	if err != nil {
		t.Fatalf("VerifyResetToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email ||
		claims.FullName != user.FullName || claims.Role != user.Role {
		t.Errorf("claims = %+v, want user snapshot %+v", claims, user)
	}

	want := time.Now().Add(ResetTTL)
	if d := claims.ExpiresAt.Time.Sub(want); d < -time.Minute || d > time.Minute {
		t.Errorf("reset expiry %v, want about %v", claims.ExpiresAt.Time, want)
	}
}

func TestVerifyResetTokenWrongSecret(t *testing.T) {
	other := NewSigner("another-secret", "interdeco-backoffice")
	signed, err := other.IssueResetToken(&entity.User{ID: "user-001"})
	if err != nil {
		t.Fatalf("IssueResetToken failed: %v", err)
	}

	if _, err := testSigner().VerifyResetToken(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("wrong-secret error = %v, want ErrInvalid", err)
	}
}
