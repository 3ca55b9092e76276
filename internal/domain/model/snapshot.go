package model

// Snapshot is what a fetcher observed at the source during one cycle.
//
// Count-only sources (the admin page scraper) leave HasItems false; list
// sources set Count to len(Messages).
type Snapshot struct {
	Count    int
	Messages []Message
	HasItems bool
}

// CountSnapshot builds a snapshot for a source that only reports a number.
func CountSnapshot(count int) Snapshot {
	return Snapshot{Count: count}
}

// ListSnapshot builds a snapshot from a full, oldest-first message list.
func ListSnapshot(messages []Message) Snapshot {
	return Snapshot{Count: len(messages), Messages: messages, HasItems: true}
}

// Newest returns the last n messages. When n exceeds the list length the
// whole list is returned.
func (s Snapshot) Newest(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n > len(s.Messages) {
		n = len(s.Messages)
	}
	out := make([]Message, n)
	copy(out, s.Messages[len(s.Messages)-n:])
	return out
}
