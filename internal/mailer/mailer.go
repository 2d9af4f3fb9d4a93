// Package mailer delivers the site's transactional email over SMTP.
// Delivery semantics (pooling, retries) belong to the transport; this
// package only composes and hands off messages.
package mailer

import (
	"context"

	"github.com/pkg/errors"
	mail "github.com/wneessen/go-mail"
)

const fromName = "12 Properties"

type Config struct {
	Host    string
	Port    int
	Secure  bool
	User    string
	Pass    string
	From    string
	BaseURL string
}

type Mailer struct {
	client  *mail.Client
	from    string
	baseURL string
}

func New(cfg Config) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating mail client for host: %s", cfg.Host)
	}
	return &Mailer{
		client:  c,
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}, nil
}

// Send delivers one HTML message. Callers decide whether a failure is fatal
// to their flow; the mailer just reports it.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, m.from); err != nil {
		return errors.Wrapf(err, "error setting mail from address: %s", m.from)
	}
	if err := msg.To(to); err != nil {
		return errors.Wrapf(err, "error setting mail to address: %s", to)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return errors.Wrapf(
		m.client.DialAndSendWithContext(ctx, msg),
		"error sending mail to: %s, subject: %s", to, subject,
	)
}
