package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Message is an outbound report notification with the rendered document
// attached. Credentials never travel with the message; they come from the
// sender's configuration.
type Message struct {
	Subject    string
	Body       string
	Attachment Attachment
}

type Attachment struct {
	Filename string
	Data     []byte
}

// Sender delivers a rendered report by email. A failure here is fatal to the
// delivery step only; the caller still has the rendered bytes.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.From == "" {
		return fmt.Errorf("smtp from address is required")
	}
	if len(c.To) == 0 {
		return fmt.Errorf("smtp recipient list is empty")
	}
	return nil
}

type smtpSender struct {
	cfg Config
}

// NewSMTPSender returns a Sender that submits over STARTTLS with
// username/password auth on the configured submission port.
func NewSMTPSender(cfg Config) (Sender, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &smtpSender{cfg: cfg}, nil
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("configure smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	return nil
}

func (s *smtpSender) buildMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if msg.Attachment.Filename != "" {
		if err := m.AttachReader(msg.Attachment.Filename, bytes.NewReader(msg.Attachment.Data)); err != nil {
			return nil, fmt.Errorf("attach report: %w", err)
		}
	}
	return m, nil
}
