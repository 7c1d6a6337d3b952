package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/varsilias/researchpaper/pkg/types"
)

// EchoClient stands in for the hosted API when no credential is configured.
// It answers with an OpenAI-shaped completion that repeats the last user
// message.
type EchoClient struct {
	model      string
	minLatency time.Duration
	now        func() time.Time
}

var _ Client = &EchoClient{}

func NewEchoClient(model string, minLatency time.Duration) *EchoClient {
	return &EchoClient{model: model, minLatency: minLatency, now: time.Now}
}

func (e *EchoClient) ChatCompletions(ctx context.Context, req *ChatRequest) (*Response, error) {
	if e.minLatency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.minLatency):
		}
	}

	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}

	now := e.now()
	body, err := json.Marshal(map[string]any{
		"id":      fmt.Sprintf("echo-%d", now.UnixNano()),
		"object":  "chat.completion",
		"created": now.Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       types.Message{Role: types.RoleAssistant, Content: fmt.Sprintf("(demo:%s) you said: %s", req.Model, prompt)},
			"finish_reason": "stop",
		}},
	})
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: http.StatusOK, StatusText: http.StatusText(http.StatusOK), Body: body}, nil
}

func (e *EchoClient) Models(context.Context) ([]Model, error) {
	return []Model{{ID: e.model, Name: "demo echo"}}, nil
}
