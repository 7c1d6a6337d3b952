// Package relay forwards chat conversations to the hosted completion API.
// It injects the configured system prompt and normalizes failures, but
// otherwise passes the upstream reply through unchanged. There is no retry.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/varsilias/researchpaper/internal/upstream"
	"github.com/varsilias/researchpaper/pkg/types"
)

const msgRequired = "Messages are required and must be a non-empty array"

type Service struct {
	log      *slog.Logger
	upstream upstream.Client
	model    string
	prompt   string
}

func NewService(log *slog.Logger, client upstream.Client, model, systemPrompt string) *Service {
	return &Service{log: log, upstream: client, model: model, prompt: systemPrompt}
}

func (s *Service) Model() string { return s.model }

// Prepare validates msgs and prepends the system prompt unless the caller
// already supplied a system message. msgs is not modified.
func (s *Service) Prepare(msgs []types.Message) ([]types.Message, error) {
	if len(msgs) == 0 {
		return nil, &ValidationError{Message: msgRequired}
	}
	for i, m := range msgs {
		switch m.Role {
		case types.RoleUser, types.RoleAssistant, types.RoleSystem:
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("messages[%d]: unsupported role %q", i, m.Role)}
		}
	}

	if s.prompt == "" || types.HasRole(msgs, types.RoleSystem) {
		out := make([]types.Message, len(msgs))
		copy(out, msgs)
		return out, nil
	}
	out := make([]types.Message, 0, len(msgs)+1)
	out = append(out, types.Message{Role: types.RoleSystem, Content: s.prompt})
	return append(out, msgs...), nil
}

// Forward sends msgs upstream and returns the successful reply. The returned
// body is valid JSON. Failures are *ValidationError, *UpstreamError or a
// transport/parse error.
func (s *Service) Forward(ctx context.Context, msgs []types.Message) (*upstream.Response, error) {
	prepared, err := s.Prepare(msgs)
	if err != nil {
		return nil, err
	}

	requestID := "llm_" + uuid.New().String()[:8]
	start := time.Now()
	log := s.log.With("relay_id", requestID, "model", s.model)

	resp, err := s.upstream.ChatCompletions(ctx, &upstream.ChatRequest{Model: s.model, Messages: prepared})
	if err != nil {
		log.Error("upstream request failed", "err", err)
		return nil, err
	}

	if !resp.OK() {
		msg, ok := upstream.ErrorMessage(resp.Body)
		if !ok && json.Valid(resp.Body) {
			msg = "Unknown error"
		}
		log.Error("upstream returned error", "status", resp.StatusCode, "message", msg)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, StatusText: resp.StatusText, Message: msg}
	}

	if !json.Valid(resp.Body) {
		log.Error("upstream returned malformed JSON", "status", resp.StatusCode, "bytes", len(resp.Body))
		return nil, fmt.Errorf("malformed JSON from upstream")
	}

	log.Info("relayed chat", "messages", len(prepared), "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

// Complete relays msgs and returns the assistant message of the first choice.
// Failures other than *ValidationError and *UpstreamError come back as
// *UnexpectedError, so callers can show the error text as is.
func (s *Service) Complete(ctx context.Context, msgs []types.Message) (types.Message, error) {
	resp, err := s.Forward(ctx, msgs)
	if err != nil {
		var (
			verr *ValidationError
			uerr *UpstreamError
		)
		if errors.As(err, &verr) || errors.As(err, &uerr) {
			return types.Message{}, err
		}
		return types.Message{}, &UnexpectedError{Err: err}
	}
	var c upstream.Completion
	if err := json.Unmarshal(resp.Body, &c); err != nil {
		return types.Message{}, ErrInvalidResponse
	}
	content, ok := c.FirstContent()
	if !ok {
		return types.Message{}, ErrInvalidResponse
	}
	return types.Message{Role: types.RoleAssistant, Content: content}, nil
}
