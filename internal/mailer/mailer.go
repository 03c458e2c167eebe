// Package mailer wraps the outbound email capability.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
)

// Message describes one outbound email to one or many recipients.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// ErrNoRecipients indicates a send attempt without any recipient.
var ErrNoRecipients = errors.New("mailer: no recipients")

// Mailer sends messages through an SMTP relay.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// Config groups SMTP settings.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// New builds a Mailer.
func New(cfg Config) *Mailer {
	return &Mailer{host: cfg.Host, port: cfg.Port, user: cfg.User, pass: cfg.Pass, from: cfg.From}
}

// Send delivers one message. A multipart body is produced when both HTML
// and plaintext parts are present.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	body, err := encode(m.from, msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, msg.To, body); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

func encode(from string, msg Message) ([]byte, error) {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	const boundary = "stockpilot-alt"
	switch {
	case msg.HTML != "" && msg.Text != "":
		b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
		for _, part := range []struct{ ctype, content string }{
			{"text/plain; charset=UTF-8", msg.Text},
			{"text/html; charset=UTF-8", msg.HTML},
		} {
			b.WriteString("--" + boundary + "\r\n")
			b.WriteString("Content-Type: " + part.ctype + "\r\n")
			b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
			if err := writeQuoted(&b, part.content); err != nil {
				return nil, err
			}
			b.WriteString("\r\n")
		}
		b.WriteString("--" + boundary + "--\r\n")
	case msg.HTML != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Text)
	}
	return []byte(b.String()), nil
}

func writeQuoted(b *strings.Builder, content string) error {
	w := quotedprintable.NewWriter(b)
	if _, err := w.Write([]byte(content)); err != nil {
		return fmt.Errorf("mailer: encode body: %w", err)
	}
	return w.Close()
}
