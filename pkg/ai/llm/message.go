package llm

// Role identifies the author of a Message
type Role string

// Role constants
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Message represents a chat message. Messages are values and are never
// mutated once built.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a new system message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SplitSystem separates leading system messages from the conversation.
// Providers whose APIs take the system prompt out of band use it.
func SplitSystem(messages []Message) (system []string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the outcome of one completion call
type Response struct {
	Message      Message `json:"message"`
	Model        string  `json:"model,omitempty"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Usage        Usage   `json:"usage"`
}

// Text returns the generated content
func (r Response) Text() string { return r.Message.Content }

// Alternate rewrites turns for backends that require strict user/assistant
// alternation starting with a user turn. Consecutive turns of one role are
// joined with a blank line and assistant turns before the first user turn
// are dropped. System messages are passed through in place.
func Alternate(turns []Message) []Message {
	out := make([]Message, 0, len(turns))
	seenUser := false
	for _, m := range turns {
		if m.Role == RoleSystem {
			out = append(out, m)
			continue
		}
		if !seenUser && m.Role == RoleAssistant {
			continue
		}
		seenUser = true
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}
