package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIME(t *testing.T) {
	msg := &Message{
		From:    "Linea Etica <noreply@example.com>",
		To:      []string{"ops@example.com"},
		Subject: "Nuevo reporte: Área",
		HTML:    "<p>Hola</p>",
		Attachments: []Attachment{
			{Filename: "evidencia.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	}

	raw, err := BuildMIME(msg)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Nuevo reporte: Área", subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	htmlPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Contains(t, htmlPart.Header.Get("Content-Type"), "text/html")

	attPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "evidencia.pdf", attPart.FileName())

	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "user", Password: "pw"})

	var gotAddr, gotFrom string
	var gotTo []string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		assert.NotNil(t, a)
		return nil
	}

	err := m.Send(context.Background(), &Message{
		From: "Linea Etica <noreply@example.com>",
		To:   []string{"ops@example.com"},
		HTML: "<p>x</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 rejected")
	}

	assert.ErrorIs(t, m.Send(context.Background(), &Message{}), ErrNoRecipients)

	err := m.Send(context.Background(), &Message{To: []string{"a@example.com"}})
	assert.ErrorContains(t, err, "550 rejected")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, &Message{To: []string{"a@example.com"}}), context.Canceled)
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "a@b.com", envelopeAddress("Name <a@b.com>"))
	assert.Equal(t, "a@b.com", envelopeAddress(" a@b.com "))
}
