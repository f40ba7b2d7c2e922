package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	gomail "github.com/wneessen/go-mail"
)

// Message is a rendered email ready for a transport.
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender delivers one message per connection. STARTTLS is used whenever
// the server offers it; credentials are only sent when a username is set.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender { return &SMTPSender{cfg: cfg} }

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := composeMsg(m)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send %s: %w", addr, err)
	}
	return nil
}

// composeMsg builds a multipart/alternative message with text and HTML parts.
func composeMsg(m Message) (*gomail.Msg, error) {
	if m.From == "" || m.To == "" {
		return nil, errors.New("mail: from and to are required")
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetMessageID()
	msg.SetDate()

	switch {
	case m.TextBody != "":
		msg.SetBodyString(gomail.TypeTextPlain, m.TextBody)
		if m.HTMLBody != "" {
			msg.AddAlternativeString(gomail.TypeTextHTML, m.HTMLBody)
		}
	case m.HTMLBody != "":
		msg.SetBodyString(gomail.TypeTextHTML, m.HTMLBody)
	}
	return msg, nil
}

// LogSender records that a message would have been sent. It is used when no
// SMTP host is configured. Bodies carry live activation codes and are not logged.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) Send(ctx context.Context, m Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email not sent, no smtp host configured",
		"to", m.To,
		"subject", m.Subject,
	)
	return nil
}
