package relay

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/varsilias/researchpaper/internal/upstream"
	"github.com/varsilias/researchpaper/pkg/types"
)

const ProbePrompt = "Say 'Hello, testing the deepseek model!'"

type Diagnostics struct {
	Success    bool        `json:"success"`
	Models     []string    `json:"models"`
	ModelCount int         `json:"modelCount"`
	Probe      ProbeResult `json:"probe"`
}

type ProbeResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Diagnose checks the credential by listing models and, concurrently, sends a
// one-line probe completion with the configured model. A failed model
// listing is returned as the error; a failed probe is reported in the result.
func (s *Service) Diagnose(ctx context.Context) (*Diagnostics, error) {
	var (
		models []upstream.Model
		probe  ProbeResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		models, err = s.upstream.Models(gctx)
		return err
	})
	g.Go(func() error {
		probe = s.probe(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return &Diagnostics{Success: true, Models: ids, ModelCount: len(ids), Probe: probe}, nil
}

func (s *Service) probe(ctx context.Context) ProbeResult {
	resp, err := s.upstream.ChatCompletions(ctx, &upstream.ChatRequest{
		Model:    s.model,
		Messages: []types.Message{{Role: types.RoleUser, Content: ProbePrompt}},
	})
	if err != nil {
		return ProbeResult{Error: err.Error()}
	}
	if !resp.OK() {
		if msg, ok := upstream.ErrorMessage(resp.Body); ok {
			return ProbeResult{Error: msg}
		}
		return ProbeResult{Error: "Failed to parse error response"}
	}
	var c upstream.Completion
	if err := json.Unmarshal(resp.Body, &c); err != nil {
		return ProbeResult{Error: "Failed to parse completion"}
	}
	content, ok := c.FirstContent()
	if !ok {
		content = "No content returned"
	}
	return ProbeResult{Success: true, Response: content}
}
