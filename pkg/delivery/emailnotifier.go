package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

const defaultSMTPTimeout = 30 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string

	// TLSSkipVerify disables certificate hostname verification. Only for
	// test setups with self-signed certificates.
	TLSSkipVerify bool

	// Timeout bounds the SMTP dial and exchange. Zero means the default.
	Timeout time.Duration
}

func (c SMTPConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultSMTPTimeout
	}
	return c.Timeout
}

// EmailNotifier delivers verification codes over SMTP
type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
	subject    string
	htmlTmpl   *template.Template
	textTmpl   *template.Template
}

func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(config.timeout()),
	}

	// Only add authentication if username and password are provided
	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: config.TLSSkipVerify}
	if !config.TLS {
		slog.Info("Using NoTLS policy")
		opts = append(opts,
			mail.WithTLSConfig(tlsConfig),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		slog.Info("Using TLS Mandatory policy")
		opts = append(opts,
			mail.WithTLSConfig(tlsConfig),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	}

	slog.Info("Creating mail client", "Host", config.Host, "Port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	htmlTmpl, err := template.New("html").Parse(loadTemplate("templates/email/verification_code.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	textTmpl, err := template.New("text").Parse(loadTemplate("templates/email/verification_code.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}

	return &EmailNotifier{
		SMTPConfig: config,
		client:     client,
		subject:    "Your verification code",
		htmlTmpl:   htmlTmpl,
		textTmpl:   textTmpl,
	}, nil
}

// Send delivers the code by email. A rejected recipient address is a hard
// error; everything transport-side maps to channel-unavailable.
func (e *EmailNotifier) Send(ctx context.Context, m Message) (Outcome, error) {
	if m.Recipient == "" {
		return OutcomeHardError, fmt.Errorf("email notification requires a recipient address")
	}

	data := map[string]string{
		"Code":   m.Code,
		"Expiry": expiryDisplayString(m.Expiry),
	}

	var textBody bytes.Buffer
	if err := e.textTmpl.Execute(&textBody, data); err != nil {
		return OutcomeHardError, fmt.Errorf("failed to execute text template: %w", err)
	}
	var htmlBody bytes.Buffer
	if err := e.htmlTmpl.Execute(&htmlBody, data); err != nil {
		return OutcomeHardError, fmt.Errorf("failed to execute HTML template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(e.SMTPConfig.From); err != nil {
		return OutcomeHardError, fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(m.Recipient); err != nil {
		return OutcomeHardError, fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject(e.subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody.String())
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody.String())

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return OutcomeChannelUnavailable, fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent successfully", "to", m.Recipient, "host", e.SMTPConfig.Host, "port", e.SMTPConfig.Port)
	return OutcomeDelivered, nil
}

func expiryDisplayString(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
