// Package upstream talks to the hosted chat-completion API. Replies are kept
// as raw bytes so the relay can pass them through unchanged.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/varsilias/researchpaper/pkg/types"
)

type Client interface {
	ChatCompletions(ctx context.Context, req *ChatRequest) (*Response, error)
	Models(ctx context.Context) ([]Model, error)
}

type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []types.Message `json:"messages"`
}

type Response struct {
	StatusCode int
	StatusText string
	Body       []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

type Model struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// StatusError is returned by calls that do not relay the raw body.
type StatusError struct {
	StatusCode int
	StatusText string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

// ErrorMessage extracts error.message from an OpenAI-style error body.
// ok is false when the body is not JSON or carries no message.
func ErrorMessage(body []byte) (msg string, ok bool) {
	var out struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false
	}
	return out.Error.Message, out.Error.Message != ""
}

// Completion is the subset of a chat completion the UI needs.
type Completion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message *types.Message `json:"message"`
	} `json:"choices"`
}

// FirstContent returns choices[0].message.content.
func (c *Completion) FirstContent() (string, bool) {
	if len(c.Choices) == 0 || c.Choices[0].Message == nil {
		return "", false
	}
	return c.Choices[0].Message.Content, true
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
