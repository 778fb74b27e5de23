package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/config"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrCustomerNoEmail is returned when a quote is sent to a customer without
// an email address on file.
var ErrCustomerNoEmail = errors.New("customer has no email address")

// Mailer delivers a single message. Tests substitute a recording fake.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends through the configured SMTP account.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// MailService builds and sends the two notification emails: a quote link for
// a customer and a password reset link for an operator.
type MailService struct {
	mailer Mailer
	app    config.AppConfig
	logger *zap.Logger
}

func NewMailService(mailer Mailer, app config.AppConfig, logger *zap.Logger) *MailService {
	return &MailService{mailer: mailer, app: app, logger: logger}
}

// SendQuote emails the tokened public link for a quote to the customer.
func (s *MailService) SendQuote(ctx context.Context, customer *entity.Customer, quote *entity.Quote, accessToken string) error {
	if customer.Email == "" {
		return fmt.Errorf("customer %s: %w", customer.ID, ErrCustomerNoEmail)
	}

	link := fmt.Sprintf("%s/quotes/view/%s", s.app.PublicBaseURL, accessToken)
	subject := fmt.Sprintf("%s - Your quote is ready", s.app.Name)
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Your quote for a total of $%.2f is ready. You can review it here:</p>
<p><a href="%s">View quote</a></p>
<p>The link is valid until %s.</p>`,
		customer.Name, quote.Total, link, expirationText(quote),
	)

	if err := s.mailer.Send(ctx, customer.Email, subject, body); err != nil {
		return err
	}
	s.logger.Info("quote email sent",
		zap.String("quote_id", quote.ID),
		zap.String("to", customer.Email),
	)
	return nil
}

// SendPasswordReset emails a 15-minute reset link to an operator.
func (s *MailService) SendPasswordReset(ctx context.Context, user *entity.User, resetToken string) error {
	link := fmt.Sprintf("%s/reset-password/%s", s.app.PublicBaseURL, resetToken)
	subject := fmt.Sprintf("%s - Password reset", s.app.Name)
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>A password reset was requested for your account. The link below expires in 15 minutes:</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request this, ignore this message.</p>`,
		user.FullName, link,
	)

	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}
	s.logger.Info("password reset email sent", zap.String("to", user.Email))
	return nil
}

func expirationText(quote *entity.Quote) string {
	if quote.ExpirationDate == nil {
		return "further notice"
	}
	return quote.ExpirationDate.Format("January 2, 2006")
}
