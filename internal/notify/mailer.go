package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/gitlakmal/clinic-system/pkg/circuitbreaker"
)

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds relay connection settings.
type SMTPConfig struct {
	// Addr is host:port of the relay.
	Addr string
	// From is the envelope and header sender.
	From string
	// Username and Password enable PLAIN auth when set.
	Username string
	Password string
}

// SMTPMailer delivers mail through a single relay, guarded by a circuit
// breaker so a dead relay fails fast instead of tying up workers.
type SMTPMailer struct {
	config  SMTPConfig
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger

	// sendMail is swappable in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer. breaker may be nil to send unguarded.
func NewSMTPMailer(cfg SMTPConfig, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{
		config:   cfg,
		breaker:  breaker,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// Send delivers msg through the relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("no recipient")
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		host := m.config.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, host)
	}

	payload := m.encode(msg)

	send := func() (interface{}, error) {
		return nil, m.sendMail(m.config.Addr, auth, m.config.From, []string{msg.To}, payload)
	}

	var err error
	if m.breaker != nil {
		_, err = m.breaker.Execute(ctx, send)
	} else {
		_, err = send()
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	m.logger.Info("mail sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func (m *SMTPMailer) encode(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
