package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/varsilias/researchpaper/internal/kv"
	"github.com/varsilias/researchpaper/internal/logging"
	"github.com/varsilias/researchpaper/internal/session"
	"github.com/varsilias/researchpaper/pkg/types"
)

func newTestController(t *testing.T, eng Engine) (*Controller, *session.Store) {
	t.Helper()
	store := session.NewStore(logging.Discard(), kv.NewMemoryStore(), "chatHistory",
		session.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))
	require.NoError(t, store.Load(context.Background()))
	return NewController(logging.Discard(), eng, NewDrafts(), store), store
}

func TestControllerSendAndSave(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newTestController(t, &recordingEngine{reply: "Sure. What is the title?"})

	draftID := NewDraftID()
	_, ok, err := ctrl.Send(ctx, draftID, "Help me research quantum computing. It is for class.")
	require.NoError(t, err)
	require.True(t, ok)

	id, err := ctrl.Save(ctx, draftID)
	require.NoError(t, err)
	require.Equal(t, "1700000000000", id)

	saved, found := store.GetChatByID(id)
	require.True(t, found)
	require.Equal(t, "Help me research quantum computing", saved.Title)
	require.Equal(t, []string{"Physics", "Research"}, saved.Tags)
	require.Len(t, saved.Messages, 2)

	_, stillDraft := ctrl.Drafts().Get(draftID)
	require.False(t, stillDraft)
}

func TestControllerSaveKeepsErrorMessages(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newTestController(t, &recordingEngine{err: errors.New("down")})

	draftID := NewDraftID()
	_, _, err := ctrl.Send(ctx, draftID, "hello")
	require.NoError(t, err)
	id, err := ctrl.Save(ctx, draftID)
	require.NoError(t, err)

	saved, _ := store.GetChatByID(id)
	require.Equal(t, types.RoleError, saved.Messages[1].Role)
}

func TestControllerSaveNothing(t *testing.T) {
	ctx := context.Background()
	ctrl, store := newTestController(t, &recordingEngine{reply: "x"})

	_, err := ctrl.Save(ctx, "missing")
	require.ErrorIs(t, err, ErrNothingToSave)

	draftID := NewDraftID()
	_, ok, err := ctrl.Send(ctx, draftID, "   ")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, ctrl.Drafts().Len(), "blank input does not start a draft")

	_, err = ctrl.Save(ctx, draftID)
	require.ErrorIs(t, err, ErrNothingToSave)
	require.Zero(t, store.Len())
}

func TestControllerSendRejectsBadDraftID(t *testing.T) {
	ctrl, _ := newTestController(t, &recordingEngine{reply: "x"})

	for _, id := range []string{"", "d1", "../etc", NewDraftID() + "x"} {
		_, ok, err := ctrl.Send(context.Background(), id, "hello")
		require.ErrorIs(t, err, ErrBadDraftID, id)
		require.False(t, ok)
	}
	require.Zero(t, ctrl.Drafts().Len())
}

func TestControllerReset(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, &recordingEngine{reply: "x"})
	draftID := NewDraftID()

	_, _, err := ctrl.Send(ctx, draftID, "hello")
	require.NoError(t, err)
	require.NoError(t, ctrl.Reset(draftID))

	conv, ok := ctrl.Drafts().Get(draftID)
	require.True(t, ok)
	require.Zero(t, conv.Len())

	require.NoError(t, ctrl.Reset(NewDraftID()))
	require.Equal(t, 1, ctrl.Drafts().Len(), "resetting an unknown draft does not create it")
}

func TestControllerResetWhileReplyPending(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	eng := EngineFunc(func(ctx context.Context, msgs []types.Message) (types.Message, error) {
		close(started)
		<-release
		return types.Message{Role: types.RoleAssistant, Content: "late reply"}, nil
	})
	ctrl, _ := newTestController(t, eng)
	draftID := NewDraftID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = ctrl.Send(context.Background(), draftID, "slow question")
	}()
	<-started

	require.ErrorIs(t, ctrl.Reset(draftID), ErrBusy)

	close(release)
	<-done
	conv, _ := ctrl.Drafts().Get(draftID)
	require.Equal(t, []types.Message{
		{Role: types.RoleUser, Content: "slow question"},
		{Role: types.RoleAssistant, Content: "late reply"},
	}, conv.Messages())
}

func TestDraftsListSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts()
	eng := &recordingEngine{reply: "ok"}

	d.Open("empty")
	c := d.Open("abc")
	_, _, err := c.Submit(ctx, eng, "Study of social media. More text")
	require.NoError(t, err)

	list := d.List()
	require.Len(t, list, 1)
	require.Equal(t, Summary{ID: "abc", Title: "Study of social media", Messages: 2}, list[0])

	require.Same(t, c, d.Open("abc"))
}

func TestDraftsCapEvictsLeastRecent(t *testing.T) {
	d := NewDrafts(WithMaxDrafts(2), WithDraftTTL(0))

	first := d.Open("first")
	time.Sleep(time.Millisecond)
	d.Open("second")
	time.Sleep(time.Millisecond)
	_, _, err := first.Submit(context.Background(), &recordingEngine{reply: "ok"}, "touch")
	require.NoError(t, err)

	d.Open("third")
	require.Equal(t, 2, d.Len())
	_, ok := d.Get("second")
	require.False(t, ok)
	_, ok = d.Get("first")
	require.True(t, ok)
}

func TestDraftsPruneIdle(t *testing.T) {
	now := time.Now()
	d := NewDrafts(WithDraftTTL(time.Hour), WithDraftClock(func() time.Time { return now }))

	d.Open("old")
	now = now.Add(2 * time.Hour)
	d.Open("fresh")

	_, ok := d.Get("old")
	require.False(t, ok)
	require.Equal(t, 1, d.Len())
}

func TestDraftIDs(t *testing.T) {
	id := NewDraftID()
	require.True(t, ValidDraftID(id))
	require.NotEqual(t, id, NewDraftID())
	require.False(t, ValidDraftID(""))
	require.False(t, ValidDraftID("not-a-uuid"))
}
