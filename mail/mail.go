// Package mail sends the OTP and password reset emails.
package mail

import (
	"context"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
)

type Relay interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SMTPRelay struct {
	cfg    SMTPConfig
	client *gomail.Client
}

var _ Relay = (*SMTPRelay)(nil)

// NewSMTPRelay builds a STARTTLS client with plain auth. Nothing is dialled
// until Send.
func NewSMTPRelay(cfg SMTPConfig) (*SMTPRelay, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSMTPRelay]")
	}
	return &SMTPRelay{cfg: cfg, client: client}, nil
}

func (r *SMTPRelay) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(r.cfg.FromName, r.cfg.From); err != nil {
		return errors.Wrap(err, "[SMTPRelay.Send] from")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "[SMTPRelay.Send] to")
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	if err := r.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "[SMTPRelay.Send] %s", to)
	}
	return nil
}
