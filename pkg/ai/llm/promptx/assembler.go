// Package promptx builds the message payload sent to the completion
// backend under two token budgets.
//
// The document budget bounds the reference snippets folded into the user
// message. The total budget bounds the whole payload: the system prompt is
// always sent, then as many of the most recent turns as fit, newest first,
// stopping at the first one that does not. Budgets apply one after the
// other and are never summed.
package promptx

import (
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/tokenx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
)

const (
	DefaultDocBudget   = 1024
	DefaultTotalBudget = 2048

	// NoDocuments replaces the document section when the search found nothing
	NoDocuments = "No documents found"

	groupSeparator = "\n\n"
)

// DocPolicy decides what happens once a snippet overflows the document budget
type DocPolicy string

const (
	// DocPolicyReference charges the overflowing snippet before rejecting it,
	// matching the deployed service. Once the budget is crossed nothing else fits.
	DocPolicyReference DocPolicy = "reference"

	// DocPolicyGroup skips the rest of the overflowing group only. A rejected
	// snippet is not charged, so a shorter snippet in a later group can still fit.
	DocPolicyGroup DocPolicy = "group"
)

// ParseDocPolicy maps a config value onto a DocPolicy, defaulting to reference
func ParseDocPolicy(s string) DocPolicy {
	if DocPolicy(strings.ToLower(strings.TrimSpace(s))) == DocPolicyGroup {
		return DocPolicyGroup
	}
	return DocPolicyReference
}

// Config holds the assembler settings
type Config struct {
	// Model selects the tokenizer encoding
	Model       string
	DocBudget   int
	TotalBudget int
	DocPolicy   DocPolicy
}

// Assembler composes user messages and windows history. It is stateless
// apart from its configuration and safe for concurrent use.
type Assembler struct {
	counter tokenx.Counter
	cfg     Config
}

// NewAssembler validates cfg and fills in defaults for zero fields
func NewAssembler(counter tokenx.Counter, cfg Config) (*Assembler, error) {
	if cfg.DocBudget == 0 {
		cfg.DocBudget = DefaultDocBudget
	}
	if cfg.TotalBudget == 0 {
		cfg.TotalBudget = DefaultTotalBudget
	}
	if cfg.DocPolicy == "" {
		cfg.DocPolicy = DocPolicyReference
	}
	if cfg.DocBudget < 0 || cfg.TotalBudget < 0 {
		return nil, ErrRegistry.New(ErrInvalidBudget).
			WithDetail("doc_budget", cfg.DocBudget).
			WithDetail("total_budget", cfg.TotalBudget)
	}
	return &Assembler{counter: counter, cfg: cfg}, nil
}

// Config returns the effective configuration
func (a *Assembler) Config() Config { return a.cfg }

// ComposeUserMessage folds as many snippets as budget allows into the user
// message. Snippets are concatenated without a separator; every group is
// followed by a blank line, even when none of its snippets fit.
func (a *Assembler) ComposeUserMessage(question string, docs search.Results, budget int) (llm.Message, error) {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nDocuments:\n\n")

	if len(docs) == 0 {
		b.WriteString(NoDocuments)
		return llm.NewUserMessage(b.String()), nil
	}

	running := 0
	for _, group := range docs {
		for _, snippet := range group {
			cost, err := a.counter.CountText(snippet, a.cfg.Model)
			if err != nil {
				return llm.Message{}, err
			}

			if a.cfg.DocPolicy == DocPolicyGroup {
				if running+cost > budget {
					break
				}
				running += cost
			} else {
				running += cost
				if running > budget {
					break
				}
			}
			b.WriteString(snippet)
		}
		b.WriteString(groupSeparator)
	}

	return llm.NewUserMessage(b.String()), nil
}

// BuildPayload returns [system, window..., user] where window is the longest
// suffix of history+[user] that fits in budget after the system prompt.
// Each candidate is costed as a list of its own, framing overhead included.
// The system prompt is kept even when it alone exceeds budget.
func (a *Assembler) BuildPayload(user, system llm.Message, history []llm.Message, budget int) ([]llm.Message, error) {
	systemCost, err := a.counter.CountMessages([]llm.Message{system}, a.cfg.Model)
	if err != nil {
		return nil, err
	}
	remaining := budget - systemCost

	candidates := make([]llm.Message, 0, len(history)+1)
	candidates = append(candidates, history...)
	candidates = append(candidates, user)

	start := len(candidates)
	if remaining > 0 {
		running := 0
		for i := len(candidates) - 1; i >= 0; i-- {
			cost, err := a.counter.CountMessages(candidates[i:i+1], a.cfg.Model)
			if err != nil {
				return nil, err
			}
			if running+cost > remaining {
				break
			}
			running += cost
			start = i
		}
	}

	payload := make([]llm.Message, 0, 1+len(candidates)-start)
	payload = append(payload, system)
	return append(payload, candidates[start:]...), nil
}

// Assembly is the outcome of one Assemble call
type Assembly struct {
	User    llm.Message
	Payload []llm.Message
	// Dropped counts the candidates (history plus user) left out of Payload
	Dropped int
	// PayloadTokens is the framed cost of Payload
	PayloadTokens int
	// UserIncluded is false when even the new user message did not fit
	UserIncluded bool
}

// Assemble composes the user message under the document budget, then
// windows history under the total budget.
func (a *Assembler) Assemble(question string, docs search.Results, system llm.Message, history []llm.Message) (Assembly, error) {
	user, err := a.ComposeUserMessage(question, docs, a.cfg.DocBudget)
	if err != nil {
		return Assembly{}, err
	}

	payload, err := a.BuildPayload(user, system, history, a.cfg.TotalBudget)
	if err != nil {
		return Assembly{}, err
	}

	tokens, err := a.counter.CountMessages(payload, a.cfg.Model)
	if err != nil {
		return Assembly{}, err
	}

	return Assembly{
		User:          user,
		Payload:       payload,
		Dropped:       len(history) + 2 - len(payload),
		PayloadTokens: tokens,
		UserIncluded:  len(payload) > 1,
	}, nil
}
