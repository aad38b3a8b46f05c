package llm

import "strings"

// ValidateMessages drops turns with an unknown role or blank content and
// lower-cases roles.
func ValidateMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch role {
		case RoleUser, RoleAssistant, RoleSystem:
			out = append(out, Message{Role: role, Content: m.Content})
		}
	}
	return out
}

// placeholderTurn opens a conversation that would otherwise start with an
// assistant turn.
const placeholderTurn = "Hello"

// NormalizeAlternating prepares turns for backends that take the system
// prompt out-of-band and require strictly alternating turns starting with
// the user. In-list system turns are folded into the returned system
// prompt; consecutive same-role turns are merged with a blank line.
func NormalizeAlternating(msgs []Message, system string) (string, []Message) {
	var sys []string
	if strings.TrimSpace(system) != "" {
		sys = append(sys, system)
	}
	var out []Message
	for _, m := range ValidateMessages(msgs) {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	if len(out) > 0 && out[0].Role != RoleUser {
		out = append([]Message{{Role: RoleUser, Content: placeholderTurn}}, out...)
	}
	return strings.Join(sys, "\n\n"), out
}

// NormalizeChat prepares turns for chat-completion style backends: the
// system prompt, when given, becomes the first turn and replaces any
// in-list system turns.
func NormalizeChat(msgs []Message, system string) []Message {
	valid := ValidateMessages(msgs)
	out := make([]Message, 0, len(valid)+1)
	hasSystem := strings.TrimSpace(system) != ""
	if hasSystem {
		out = append(out, Message{Role: RoleSystem, Content: system})
	}
	for _, m := range valid {
		if hasSystem && m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}
