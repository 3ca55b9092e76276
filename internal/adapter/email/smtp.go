package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// Options configures SMTP submission.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string
	To   string
	// Timeout bounds connect and each SMTP command.
	Timeout time.Duration
}

// SendFunc delivers prepared messages over one SMTP session.
type SendFunc func(ctx context.Context, msgs ...*mail.Msg) error

// Channel emails new contact messages.
type Channel struct {
	from   string
	to     string
	send   SendFunc
	logger ports.Logger
}

var _ ports.Channel = (*Channel)(nil)

// New creates an email channel submitting through opts.Host with
// mandatory STARTTLS and PLAIN auth.
func New(opts Options, logger ports.Logger) *Channel {
	from := opts.From
	if from == "" {
		from = opts.Username
	}
	return &Channel{
		from:   from,
		to:     opts.To,
		send:   smtpSender(opts),
		logger: logger,
	}
}

// WithSender swaps the SMTP transport.
func (c *Channel) WithSender(send SendFunc) *Channel {
	c.send = send
	return c
}

// Name identifies the channel in logs and metrics.
func (c *Channel) Name() string { return "email" }

// Send emails one message per new contact message, or a single summary.
func (c *Channel) Send(ctx context.Context, delta model.Delta) error {
	msgs, err := c.build(delta)
	if err != nil {
		return err
	}
	if err := c.send(ctx, msgs...); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	c.logger.Info(ctx, "email notification sent", "emails", len(msgs), "to", c.to)
	return nil
}

func (c *Channel) build(delta model.Delta) ([]*mail.Msg, error) {
	if !delta.Detailed() {
		summary := delta.Summary()
		body := summary.Description + "\n\nAutomated notification from your website monitor.\n"
		m, err := c.newMsg(summary.Title, body)
		if err != nil {
			return nil, err
		}
		return []*mail.Msg{m}, nil
	}

	msgs := make([]*mail.Msg, 0, len(delta.Messages))
	for _, message := range delta.Messages {
		m, err := c.newMsg("New Contact Message from "+message.SenderName(), formatMessage(message))
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (c *Channel) newMsg(subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(c.from); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(c.to); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}
	m.Subject(subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func formatMessage(m model.Message) string {
	var builder strings.Builder
	builder.WriteString("New contact form message received:\n\n")
	builder.WriteString(fmt.Sprintf("Name: %s\n", m.SenderName()))
	builder.WriteString(fmt.Sprintf("Email: %s\n", m.SenderEmail()))
	builder.WriteString(fmt.Sprintf("Time: %s\n\n", m.SentAt()))
	builder.WriteString("Message:\n")
	builder.WriteString(m.Text())
	builder.WriteString("\n\n---\nAutomated notification from contact monitor\n")
	return builder.String()
}

func smtpSender(opts Options) SendFunc {
	return func(ctx context.Context, msgs ...*mail.Msg) error {
		clientOpts := []mail.Option{
			mail.WithPort(opts.Port),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
			mail.WithTLSPolicy(mail.TLSMandatory),
		}
		if opts.Timeout > 0 {
			clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
		}
		client, err := mail.NewClient(opts.Host, clientOpts...)
		if err != nil {
			return fmt.Errorf("create smtp client: %w", err)
		}
		return client.DialAndSendWithContext(ctx, msgs...)
	}
}
