package model

import "strings"

const (
	placeholderUnknown = "Unknown"
	placeholderBody    = "No message content"
)

// Message is a single contact form submission as reported by the source.
type Message struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Body      string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SenderName returns the sender name or a placeholder.
func (m Message) SenderName() string { return orPlaceholder(m.Name, placeholderUnknown) }

// SenderEmail returns the sender email or a placeholder.
func (m Message) SenderEmail() string { return orPlaceholder(m.Email, placeholderUnknown) }

// SentAt returns the submission timestamp or a placeholder.
func (m Message) SentAt() string { return orPlaceholder(m.Timestamp, placeholderUnknown) }

// Text returns the message body or a placeholder.
func (m Message) Text() string { return orPlaceholder(m.Body, placeholderBody) }

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
