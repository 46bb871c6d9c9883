// Package tokenx counts tokens the way the completion backends bill them.
//
// A Meter resolves a model name to a BPE encoding once and caches it, so
// counting is pure and safe for concurrent use. Message sequences are
// costed with the chat framing overhead: every message pays a fixed 4
// tokens plus its role and content, and every list pays 2 more for the
// reply primer.
package tokenx

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/asyncx"
)

const (
	// PerMessageOverhead is charged for every message in a list
	PerMessageOverhead = 4
	// PerListOverhead is charged once for every list
	PerListOverhead = 2
)

// CostMode selects which message fields are charged
type CostMode string

const (
	// CostModeReference charges role and content, as deployed.
	CostModeReference CostMode = "reference"
	// CostModeContentOnly charges content only. The fixed per-message overhead already covers the role.
	CostModeContentOnly CostMode = "content_only"
)

// ParseCostMode maps a config value onto a CostMode, defaulting to reference
func ParseCostMode(s string) CostMode {
	if CostMode(s) == CostModeContentOnly {
		return CostModeContentOnly
	}
	return CostModeReference
}

// Encoding turns text into token ids. *tiktoken.Tiktoken satisfies it.
type Encoding interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// Resolver returns the encoding used by model
type Resolver func(model string) (Encoding, error)

// Counter is what the prompt assembler needs from a Meter
type Counter interface {
	CountText(text, model string) (int, error)
	CountMessages(messages []llm.Message, model string) (int, error)
}

// Meter implements Counter on top of tiktoken encodings
type Meter struct {
	mode      CostMode
	overrides map[string]string
	resolve   Resolver
	encodings sync.Map // model -> Encoding
}

var _ Counter = (*Meter)(nil)

// Option configures a Meter
type Option func(*Meter)

// WithCostMode selects the message cost mode
func WithCostMode(mode CostMode) Option {
	return func(m *Meter) { m.mode = mode }
}

// WithEncodingOverrides maps model names to encoding names ahead of the
// built-in model table, e.g. {"gpt-3.5": "cl100k_base"}. Model names match
// case-insensitively.
func WithEncodingOverrides(overrides map[string]string) Option {
	return func(m *Meter) {
		for model, enc := range overrides {
			m.overrides[strings.ToLower(model)] = enc
		}
	}
}

// WithResolver replaces tiktoken as the encoding source
func WithResolver(r Resolver) Option {
	return func(m *Meter) { m.resolve = r }
}

// installOfflineLoader makes tiktoken read BPE ranks from the embedded
// loader instead of downloading them.
var installOfflineLoader = asyncx.Once(func() (struct{}, error) {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	return struct{}{}, nil
})

// NewMeter creates a Meter backed by tiktoken
func NewMeter(opts ...Option) *Meter {
	m := &Meter{
		mode:      CostModeReference,
		overrides: make(map[string]string),
	}
	m.resolve = m.tiktokenResolver
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the configured cost mode
func (m *Meter) Mode() CostMode { return m.mode }

// Preload resolves the encodings of models up front so a misconfigured
// model fails at startup rather than on the first request.
func (m *Meter) Preload(models ...string) error {
	for _, model := range models {
		if _, err := m.encoding(model); err != nil {
			return err
		}
	}
	return nil
}

// CountText returns the number of tokens in text under model's encoding.
// Special-token markers are counted as ordinary text.
func (m *Meter) CountText(text, model string) (int, error) {
	enc, err := m.encoding(model)
	if err != nil {
		return 0, err
	}
	return count(enc, text), nil
}

// CountMessages returns the framed cost of messages: per message
// PerMessageOverhead plus the charged fields, plus PerListOverhead once.
func (m *Meter) CountMessages(messages []llm.Message, model string) (int, error) {
	enc, err := m.encoding(model)
	if err != nil {
		return 0, err
	}

	total := PerListOverhead
	for _, msg := range messages {
		total += PerMessageOverhead + count(enc, msg.Content)
		if m.mode == CostModeReference {
			total += count(enc, string(msg.Role))
		}
	}
	return total, nil
}

func (m *Meter) encoding(model string) (Encoding, error) {
	if enc, ok := m.encodings.Load(model); ok {
		return enc.(Encoding), nil
	}

	enc, err := m.resolve(model)
	if err != nil {
		return nil, err
	}
	actual, _ := m.encodings.LoadOrStore(model, enc)
	return actual.(Encoding), nil
}

func (m *Meter) tiktokenResolver(model string) (Encoding, error) {
	installOfflineLoader()

	var (
		enc *tiktoken.Tiktoken
		err error
	)
	if name, ok := m.overrides[strings.ToLower(model)]; ok {
		enc, err = tiktoken.GetEncoding(name)
	} else {
		enc, err = tiktoken.EncodingForModel(model)
	}
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrUnknownModel, err).
			WithDetail("model", model)
	}
	return enc, nil
}

func count(enc Encoding, text string) int {
	if text == "" {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}
