package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/varsilias/researchpaper/internal/logging"
	"github.com/varsilias/researchpaper/internal/relay"
	"github.com/varsilias/researchpaper/internal/upstream"
	"github.com/varsilias/researchpaper/pkg/types"
)

// recordingEngine returns reply or err and records the messages it received.
type recordingEngine struct {
	mu    sync.Mutex
	seen  [][]types.Message
	reply string
	err   error
}

func (e *recordingEngine) Complete(_ context.Context, msgs []types.Message) (types.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, msgs)
	if e.err != nil {
		return types.Message{}, e.err
	}
	return types.Message{Role: types.RoleAssistant, Content: e.reply}, nil
}

func TestSubmitBlankIsNoop(t *testing.T) {
	eng := &recordingEngine{reply: "x"}
	c := NewConversation("c1")

	for _, in := range []string{"", "   ", "\n\t"} {
		_, ok, err := c.Submit(context.Background(), eng, in)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Zero(t, c.Len())
	require.Empty(t, eng.seen)
}

func TestSubmitAppendsReply(t *testing.T) {
	eng := &recordingEngine{reply: "Which field of study?"}
	c := NewConversation("c1")

	turn, ok, err := c.Submit(context.Background(), eng, "Write a paper on climate policy")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, turn.Failed())
	require.Empty(t, turn.Err)
	require.Equal(t, []types.Message{
		{Role: types.RoleUser, Content: "Write a paper on climate policy"},
		{Role: types.RoleAssistant, Content: "Which field of study?"},
	}, c.Messages())
	require.False(t, c.Loading())
}

func TestSubmitFailureAppendsErrorMessage(t *testing.T) {
	eng := &recordingEngine{err: &relay.UpstreamError{StatusCode: 429, Message: "Rate limit exceeded"}}
	c := NewConversation("c1")

	turn, ok, err := c.Submit(context.Background(), eng, "hello")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, turn.Failed())
	require.Equal(t, "Failed to get response from AI service: Rate limit exceeded", turn.Err)
	require.Equal(t, turn.Err, c.LastError())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, types.Message{Role: types.RoleError, Content: ErrorReply}, msgs[1])
}

func TestSubmitInvalidResponseText(t *testing.T) {
	c := NewConversation("c1")
	turn, _, _ := c.Submit(context.Background(), &recordingEngine{err: relay.ErrInvalidResponse}, "hello")
	require.Equal(t, "Invalid response format from AI service", turn.Err)
}

func TestSubmitStripsErrorMessagesAndClearsLastError(t *testing.T) {
	eng := &recordingEngine{err: errors.New("boom")}
	c := NewConversation("c1")

	_, _, err := c.Submit(context.Background(), eng, "first")
	require.NoError(t, err)
	require.Equal(t, "boom", c.LastError())

	eng.err = nil
	eng.reply = "ok"
	_, _, err = c.Submit(context.Background(), eng, "second")
	require.NoError(t, err)
	require.Empty(t, c.LastError())

	require.Equal(t, []types.Message{
		{Role: types.RoleUser, Content: "first"},
		{Role: types.RoleUser, Content: "second"},
	}, eng.seen[1])
	require.Len(t, c.Messages(), 4, "error bubble stays in the transcript")
}

func TestSubmitWhileLoadingIsBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	eng := EngineFunc(func(ctx context.Context, msgs []types.Message) (types.Message, error) {
		close(started)
		<-release
		return types.Message{Role: types.RoleAssistant, Content: "done"}, nil
	})
	c := NewConversation("c1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = c.Submit(context.Background(), eng, "slow")
	}()
	<-started
	require.True(t, c.Loading())

	_, ok, err := c.Submit(context.Background(), eng, "again")
	require.ErrorIs(t, err, ErrBusy)
	require.False(t, ok)

	close(release)
	<-done
	require.False(t, c.Loading())
	require.Len(t, c.Messages(), 2)
}

func TestReset(t *testing.T) {
	c := NewConversation("c1")
	_, _, _ = c.Submit(context.Background(), &recordingEngine{err: errors.New("x")}, "hi")
	require.NoError(t, c.Reset())
	require.Zero(t, c.Len())
	require.Empty(t, c.LastError())
}

func TestSubmitHidesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := upstream.NewHTTPClient(upstream.Options{BaseURL: url, APIKey: "sk-test", Timeout: time.Second}, logging.Discard())
	svc := relay.NewService(logging.Discard(), client, "test/model", "")
	c := NewConversation("c1")

	turn, ok, err := c.Submit(context.Background(), svc, "hello")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "An unexpected error occurred", turn.Err)
	require.Equal(t, "An unexpected error occurred", c.LastError())
	require.NotContains(t, c.LastError(), url)
}
