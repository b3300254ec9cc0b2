package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender delivers messages through an SMTP server. Each Send dials a
// fresh connection; sweeps send a handful of messages a day.
type SMTPSender struct {
	from   string
	domain string
	dial   func() (gomail.SendCloser, error)
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPSender(cfg.From, d.Dial)
}

func newSMTPSender(from string, dial func() (gomail.SendCloser, error)) *SMTPSender {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.TrimSuffix(from[at+1:], ">")
	}
	return &SMTPSender{from: from, domain: domain, dial: dial}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("message has no recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain))
	m.SetBody("text/html", msg.HTML)

	conn, err := s.dial()
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	defer conn.Close()

	if err := gomail.Send(conn, m); err != nil {
		return errors.Wrapf(err, "send to %s", msg.To)
	}
	return nil
}
