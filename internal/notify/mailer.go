package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"github.com/yukikurage/agencyboard-api/internal/config"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"go.uber.org/zap"
)

var ErrEmailNotConfigured = errors.New("email not configured. Please configure SMTP settings in Admin > Email Settings")

const (
	defaultFromName = "Project Management"
	dialTimeout     = 15 * time.Second
)

// Email is one outgoing message
type Email struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Result reports the outcome of a send
type Result struct {
	Success bool
	Error   string
}

// Mailer sends email
type Mailer interface {
	Send(ctx context.Context, email Email) Result
}

// transport is everything needed to open an SMTP session and address a message
type transport struct {
	host     string
	port     int
	user     string
	password string
	ssl      bool
	fromName string
	fromAddr string
}

func (t transport) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(t.port),
		mail.WithTimeout(dialTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if t.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(t.user),
			mail.WithPassword(t.password),
		)
	}
	if t.ssl {
		opts = append(opts, mail.WithSSL())
	}
	return mail.NewClient(t.host, opts...)
}

func (t transport) message(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if t.fromName != "" {
		if err := msg.FromFormat(t.fromName, t.fromAddr); err != nil {
			return nil, fmt.Errorf("invalid sender: %w", err)
		}
	} else if err := msg.From(t.fromAddr); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, email.Text)
	if email.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	}
	return msg, nil
}

// settingsTransport builds a transport from a stored settings row. Port 465
// means implicit TLS.
func settingsTransport(s *models.EmailSettings) transport {
	port := s.SMTPPort
	if port == 0 {
		port = constants.DefaultSMTPPort
	}
	fromName := s.FromName
	if fromName == "" {
		fromName = defaultFromName
	}
	return transport{
		host:     s.SMTPHost,
		port:     port,
		user:     s.SMTPUser,
		password: s.SMTPPassword,
		ssl:      port == constants.ImplicitTLSSMTPPort,
		fromName: fromName,
		fromAddr: s.SMTPUser,
	}
}

func envTransport(c config.SMTPConfig) transport {
	from := c.From
	if from == "" {
		from = c.User
	}
	return transport{
		host:     c.Host,
		port:     c.Port,
		user:     c.User,
		password: c.Password,
		ssl:      c.Secure,
		fromAddr: from,
	}
}

// SMTPMailer sends mail with the stored settings, falling back to the
// environment configuration.
type SMTPMailer struct {
	settings *SettingsCache
	fallback config.SMTPConfig
	log      *zap.Logger
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(settings *SettingsCache, fallback config.SMTPConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{settings: settings, fallback: fallback, log: log}
}

func (m *SMTPMailer) transport(ctx context.Context) (transport, error) {
	if s := m.settings.Get(ctx); s.Usable() {
		return settingsTransport(s), nil
	}
	if m.fallback.User != "" {
		return envTransport(m.fallback), nil
	}
	return transport{}, ErrEmailNotConfigured
}

// Send delivers email and reports the outcome. It never returns an error;
// failures are logged and carried in the Result.
func (m *SMTPMailer) Send(ctx context.Context, email Email) Result {
	fail := func(err error) Result {
		m.log.Error("failed to send email",
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err),
		)
		return Result{Error: err.Error()}
	}

	t, err := m.transport(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := t.message(email)
	if err != nil {
		return fail(err)
	}
	client, err := t.client()
	if err != nil {
		return fail(err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fail(err)
	}

	m.log.Info("email sent", zap.Strings("to", email.To), zap.String("subject", email.Subject))
	return Result{Success: true}
}

// Verify opens and authenticates an SMTP session with settings
func (m *SMTPMailer) Verify(ctx context.Context, settings *models.EmailSettings) error {
	client, err := settingsTransport(settings).client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return err
	}
	return client.Close()
}

// SendTest sends a fixed test message to to using settings
func (m *SMTPMailer) SendTest(ctx context.Context, settings *models.EmailSettings, to string) error {
	t := settingsTransport(settings)
	if settings.FromName == "" {
		t.fromName = "Test"
	}
	msg, err := t.message(Email{
		To:      []string{to},
		Subject: "Test Email - Project Management System",
		Text:    "This is a test email to verify your SMTP configuration is working correctly.",
		HTML: "<p>This is a test email from your Project Management System.</p>" +
			"<p>If you received this email, your SMTP settings are configured correctly.</p>" +
			"<p>Sent at: " + time.Now().UTC().Format(time.RFC3339) + "</p>",
	})
	if err != nil {
		return err
	}
	client, err := t.client()
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// htmlBody renders a plain text body as HTML, keeping line breaks
func htmlBody(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
