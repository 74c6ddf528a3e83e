package mailer

import (
	"context"
	"errors"
)

// ErrNoRecipients is returned when a message has no To address
var ErrNoRecipients = errors.New("mailer: no recipients")

// Mailer delivers one HTML message
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// Message is a provider-independent email
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Attachment is an in-memory file
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

func (m *Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}
