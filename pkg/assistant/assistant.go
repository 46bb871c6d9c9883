// Package assistant answers questions within a conversation. One Ask reads
// the session history, looks up reference documents, assembles a payload
// under the token budgets, calls the completion backend and stores the
// new turn.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/memoryx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/promptx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/asyncx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
)

// Query is one question asked within a session
type Query struct {
	Question  string
	SessionID kernel.SessionID
}

// Answer is the completion text plus what went into producing it
type Answer struct {
	Text          string
	SessionID     kernel.SessionID
	PayloadTokens int
	Dropped       int
}

// Config holds the per-call settings of the service
type Config struct {
	Params            llm.Params
	SearchLimit       int
	SearchTimeout     time.Duration
	ReadTimeout       time.Duration
	CompletionTimeout time.Duration
	SessionTTL        time.Duration
	// AtomicAppend stores the turn with Store.Append. When false the
	// history is read again and replaced with Store.Write.
	AtomicAppend bool
}

type Service struct {
	store     memoryx.Store
	searcher  search.Searcher
	assembler *promptx.Assembler
	gateway   llm.Gateway
	system    llm.Message
	cfg       Config
}

func NewService(
	store memoryx.Store,
	searcher search.Searcher,
	assembler *promptx.Assembler,
	gateway llm.Gateway,
	system llm.Message,
	cfg Config,
) *Service {
	if searcher == nil {
		searcher = search.None{}
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = search.DefaultLimit
	}
	return &Service{
		store:     store,
		searcher:  searcher,
		assembler: assembler,
		gateway:   gateway,
		system:    system,
		cfg:       cfg,
	}
}

// Ask answers q.Question. History and search failures degrade to an empty
// history and no documents; completion and persistence failures are
// returned. The question is sent as given; blank questions are rejected.
func (s *Service) Ask(ctx context.Context, q Query) (Answer, error) {
	question := q.Question
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrRegistry.New(ErrEmptyQuestion)
	}

	sessionID := q.SessionID
	if sessionID.IsEmpty() {
		sessionID = kernel.DefaultSessionID
	}

	// entries mutate in place, so every log line starts from fields
	fields := logx.Fields{
		"request_id": kernel.RequestIDFrom(ctx).String(),
		"session_id": sessionID.String(),
	}

	history, err := asyncx.WithTimeout(ctx, s.cfg.ReadTimeout, func(ctx context.Context) ([]llm.Message, error) {
		return s.store.Read(ctx, sessionID)
	})
	if err != nil {
		logx.WithFields(fields).WithError(err).Warn("session history unavailable, continuing without it")
		history = nil
	}

	docs, err := asyncx.WithTimeout(ctx, s.cfg.SearchTimeout, func(ctx context.Context) (search.Results, error) {
		return s.searcher.Search(ctx, question, s.cfg.SearchLimit)
	})
	if err != nil {
		logx.WithFields(fields).WithError(err).Warn("document search failed, continuing without documents")
		docs = nil
	}

	asm, err := s.assembler.Assemble(question, docs, s.system, history)
	if err != nil {
		return Answer{}, err
	}
	if !asm.UserIncluded {
		logx.WithFields(fields).Warn("question does not fit the total budget, sending system prompt only")
	}

	resp, err := asyncx.WithTimeout(ctx, s.cfg.CompletionTimeout, func(ctx context.Context) (llm.Response, error) {
		return s.gateway.Complete(ctx, asm.Payload, s.cfg.Params)
	})
	if err != nil {
		logx.WithFields(fields).WithError(err).Error("completion failed")
		return Answer{}, ErrRegistry.NewWithCause(ErrGateway, err).WithDetail("model", s.cfg.Params.Model)
	}

	if err := s.persist(ctx, sessionID, asm.User, llm.NewAssistantMessage(resp.Text())); err != nil {
		logx.WithFields(fields).WithError(err).Error("failed to save conversation turn")
		return Answer{}, err
	}

	logx.WithFields(fields).WithFields(logx.Fields{
		"history":       len(history),
		"documents":     docs.Snippets(),
		"tokens":        asm.PayloadTokens,
		"dropped":       asm.Dropped,
		"prompt_tokens": resp.Usage.PromptTokens,
		"answer_tokens": resp.Usage.CompletionTokens,
	}).Info("question answered")

	return Answer{
		Text:          resp.Text(),
		SessionID:     sessionID,
		PayloadTokens: asm.PayloadTokens,
		Dropped:       asm.Dropped,
	}, nil
}

func (s *Service) persist(ctx context.Context, id kernel.SessionID, turn ...llm.Message) error {
	if s.cfg.AtomicAppend {
		if err := s.store.Append(ctx, id, s.cfg.SessionTTL, turn...); err != nil {
			return ErrRegistry.NewWithCause(ErrPersist, err)
		}
		return nil
	}

	history, err := s.store.Read(ctx, id)
	if err != nil && !errx.HasCode(err, memoryx.ErrStoreCorruption) {
		return ErrRegistry.NewWithCause(ErrPersist, err)
	}
	if err := s.store.Write(ctx, id, append(history, turn...), s.cfg.SessionTTL); err != nil {
		return ErrRegistry.NewWithCause(ErrPersist, err)
	}
	return nil
}
