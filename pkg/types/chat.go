package types

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	// RoleError marks a synthetic message shown in place of a failed reply.
	// It is never sent upstream.
	RoleError Role = "error"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleError:
		return true
	}
	return false
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// WithoutErrors returns the messages that can be relayed upstream.
func WithoutErrors(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleError {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FirstUser returns the content of the first user-authored message.
func FirstUser(msgs []Message) (string, bool) {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return m.Content, true
		}
	}
	return "", false
}

func HasRole(msgs []Message, role Role) bool {
	for _, m := range msgs {
		if m.Role == role {
			return true
		}
	}
	return false
}
