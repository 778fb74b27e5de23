package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/config"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/testutil"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeMailer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.Issuer = "interdeco-backoffice"
	cfg.JWT.AccessTokenExpire = 2 * time.Hour
	cfg.JWT.RefreshTokenExpire = 168 * time.Hour

	signer := token.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer)
	mailer := &fakeMailer{}
	mail := NewMailService(mailer, config.AppConfig{
		Name:          "Interdeco",
		PublicBaseURL: "https://app.interdeco.test",
	}, zap.NewNop())

	// Session bookkeeping in redis is best-effort; tests run without a server.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	svc := NewAuthService(repos.User, rdb, signer, mail, cfg)

	testutil.SeedTestUser(t, db, "user-001", "Maria Lopez", "maria@interdeco.test", entity.RoleSeller, "hunter22")

	return svc, mailer
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, pair, err := svc.Login(context.Background(), "maria@interdeco.test", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != "user-001" {
		t.Errorf("user id = %q", user.ID)
	}
	if user.LastLoginAt == nil {
		t.Error("LastLoginAt not set")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}

	tok, err := jwt.Parse(pair.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["uid"] != "user-001" || claims["role"] != entity.RoleSeller {
		t.Errorf("claims = %v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, _, err := svc.Login(context.Background(), "maria@interdeco.test", "wrong"); err == nil {
		t.Error("expected error for wrong password")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, _, err := svc.Login(context.Background(), "nobody@interdeco.test", "hunter22"); err == nil {
		t.Error("expected error for unknown email")
	}
}

func TestRequestPasswordReset(t *testing.T) {
	svc, mailer := newAuthFixture(t)

	if err := svc.RequestPasswordReset(context.Background(), "maria@interdeco.test"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	msg := mailer.last()
	if msg == nil {
		t.Fatal("no email sent")
	}
	if msg.To != "maria@interdeco.test" {
		t.Errorf("mail to = %q", msg.To)
	}

	// The link carries a verifiable token with the profile snapshot.
	start := strings.Index(msg.Body, "/reset-password/")
	if start < 0 {
		t.Fatal("mail body has no reset link")
	}
	rest := msg.Body[start+len("/reset-password/"):]
	resetToken := rest[:strings.IndexAny(rest, `"<`)]

	claims, err := svc.VerifyResetToken(resetToken)
	if err != nil {
		t.Fatalf("mailed token does not verify: %v", err)
	}
	if claims.UserID != "user-001" || claims.Email != "maria@interdeco.test" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, mailer := newAuthFixture(t)

	err := svc.RequestPasswordReset(context.Background(), "nobody@interdeco.test")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if mailer.last() != nil {
		t.Error("no email should be sent for unknown addresses")
	}
}

func TestConfirmPasswordReset(t *testing.T) {
	svc, mailer := newAuthFixture(t)

	if err := svc.RequestPasswordReset(context.Background(), "maria@interdeco.test"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	body := mailer.last().Body
	start := strings.Index(body, "/reset-password/") + len("/reset-password/")
	rest := body[start:]
	resetToken := rest[:strings.IndexAny(rest, `"<`)]

	if err := svc.ConfirmPasswordReset(context.Background(), resetToken, "newpass99"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "maria@interdeco.test", "hunter22"); err == nil {
		t.Error("old password still accepted")
	}
	if _, _, err := svc.Login(context.Background(), "maria@interdeco.test", "newpass99"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestConfirmPasswordResetExpiredToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	now := time.Now()
	claims := token.ResetClaims{
		UserID: "user-001",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-45 * time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testutil.JWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	err = svc.ConfirmPasswordReset(context.Background(), expired, "newpass99")
	if !errors.Is(err, token.ErrExpired) {
		t.Errorf("error = %v, want ErrExpired", err)
	}
}

func TestConfirmPasswordResetGarbageToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	err := svc.ConfirmPasswordReset(context.Background(), "not-a-token", "newpass99")
	if !errors.Is(err, token.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}
