package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeMultipart(t *testing.T) {
	body, err := encode("no-reply@stockpilot.local", Message{
		To:      []string{"a@x.com", "b@x.com"},
		Subject: "Back in stock: Canvas Tote",
		HTML:    "<p>hello</p>",
		Text:    "hello",
	})
	require.NoError(t, err)

	raw := string(body)
	require.Contains(t, raw, "From: no-reply@stockpilot.local\r\n")
	require.Contains(t, raw, "To: a@x.com, b@x.com\r\n")
	require.Contains(t, raw, "Subject: Back in stock: Canvas Tote\r\n")
	require.Contains(t, raw, "multipart/alternative")
	require.Contains(t, raw, "text/html; charset=UTF-8")
	require.Contains(t, raw, "text/plain; charset=UTF-8")
}

func TestEncodeHTMLOnly(t *testing.T) {
	body, err := encode("no-reply@stockpilot.local", Message{
		To:      []string{"a@x.com"},
		Subject: "s",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	require.Contains(t, string(body), "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>hi</p>")
	require.NotContains(t, string(body), "multipart")
}

func TestSendRequiresRecipients(t *testing.T) {
	m := New(Config{Host: "127.0.0.1", Port: 1025, From: "no-reply@stockpilot.local"})
	err := m.Send(context.Background(), Message{Subject: "s", Text: "t"})
	require.ErrorIs(t, err, ErrNoRecipients)
}
