package model

// Delta is the transport-agnostic payload handed to every channel.
type Delta struct {
	// Count is the number of new messages since the last stored count.
	Count int
	// Messages holds the new messages, oldest first. Empty when the source
	// only reports a count.
	Messages []Message
	// Link points at the admin panel, used by count-only payloads.
	Link string
}

// Detailed reports whether per-message details are available.
func (d Delta) Detailed() bool {
	return len(d.Messages) > 0
}
