package model

import "fmt"

// NotificationField represents a titled section within a notification payload.
type NotificationField struct {
	Name   string
	Value  string
	Inline bool
}

// Notification is a transport-agnostic message for downstream notifiers.
type Notification struct {
	Title       string
	Description string
	Fields      []NotificationField
}

// Notifications renders a delta into one notification per new message, or a
// single summary when the delta carries no message details.
func (d Delta) Notifications() []Notification {
	if !d.Detailed() {
		return []Notification{d.Summary()}
	}

	out := make([]Notification, 0, len(d.Messages))
	for _, m := range d.Messages {
		out = append(out, Notification{
			Title:       "New Contact Message",
			Description: fmt.Sprintf("New contact form message from %s", m.SenderName()),
			Fields: []NotificationField{
				{Name: "Name", Value: m.SenderName(), Inline: true},
				{Name: "Email", Value: m.SenderEmail(), Inline: true},
				{Name: "Message", Value: m.Text(), Inline: false},
				{Name: "Time", Value: m.SentAt(), Inline: true},
			},
		})
	}
	return out
}

// Summary renders the bare-count form of the delta.
func (d Delta) Summary() Notification {
	description := fmt.Sprintf("You have %d new contact form message(s).", d.Count)
	if d.Link != "" {
		description += fmt.Sprintf("\n\nView them at: %s", d.Link)
	}
	return Notification{
		Title:       fmt.Sprintf("New Contact Messages (%d)", d.Count),
		Description: description,
	}
}
