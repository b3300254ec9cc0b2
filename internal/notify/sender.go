// Package notify delivers borrower notifications. The reminder sweeps only
// depend on the Sender interface; SMTPSender is the production transport and
// LogSender stands in when no mail server is configured.
package notify

import (
	"context"
	"log"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message. A returned error means the message was not
// delivered and may be retried on a later run.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("Notify: (log only) to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
