package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/varsilias/researchpaper/pkg/types"
)

const ErrorReply = "Sorry, there was an error processing your request. Please try again."

// ErrBusy is returned when a turn is submitted while the previous one is
// still waiting for its reply.
var ErrBusy = errors.New("a reply is already in progress")

// Conversation is the live, unsaved state of one chat page.
type Conversation struct {
	ID string

	mu       sync.Mutex
	messages []types.Message
	loading  bool
	lastErr  string
	updated  time.Time
}

func NewConversation(id string) *Conversation {
	return &Conversation{ID: id, updated: time.Now()}
}

// Turn is the outcome of one Submit.
type Turn struct {
	User  types.Message
	Reply types.Message
	// Err is the failure text shown above the input; empty on success.
	Err string
}

func (t Turn) Failed() bool { return t.Reply.Role == types.RoleError }

// Submit appends input as a user message, relays every non-error message to
// eng and appends the reply. A failed relay appends an error-role message
// instead and records the failure text. Blank input is ignored and reports
// ok=false.
func (c *Conversation) Submit(ctx context.Context, eng Engine, input string) (turn Turn, ok bool, err error) {
	if strings.TrimSpace(input) == "" {
		return Turn{}, false, nil
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Turn{}, false, ErrBusy
	}
	c.lastErr = ""
	turn.User = types.Message{Role: types.RoleUser, Content: input}
	c.messages = append(c.messages, turn.User)
	c.loading = true
	c.updated = time.Now()
	payload := types.WithoutErrors(c.messages)
	c.mu.Unlock()

	reply, relayErr := eng.Complete(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.updated = time.Now()
	if relayErr != nil {
		turn.Err = relayErr.Error()
		if turn.Err == "" {
			turn.Err = "An unexpected error occurred"
		}
		turn.Reply = types.Message{Role: types.RoleError, Content: ErrorReply}
		c.lastErr = turn.Err
	} else {
		turn.Reply = types.Message{Role: types.RoleAssistant, Content: reply.Content}
	}
	c.messages = append(c.messages, turn.Reply)
	return turn, true, nil
}

// Messages returns a copy of the transcript, error messages included.
func (c *Conversation) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Conversation) Updated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}

// Reset clears the transcript and the last error. It returns ErrBusy while a
// reply is pending, since that reply would land in the emptied transcript.
func (c *Conversation) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrBusy
	}
	c.messages = nil
	c.lastErr = ""
	c.updated = time.Now()
	return nil
}
