package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/varsilias/researchpaper/pkg/types"
)

// NothingToSave is shown when saving a conversation without messages.
const NothingToSave = "Nothing to save"

var ErrNothingToSave = errors.New(NothingToSave)

// ErrBadDraftID is returned for draft ids not made by NewDraftID.
var ErrBadDraftID = errors.New("invalid draft id")

// Saver persists a finished conversation and returns the new session id.
type Saver interface {
	SaveChat(ctx context.Context, msgs []types.Message) (string, error)
}

type Controller struct {
	log    *slog.Logger
	eng    Engine
	drafts *Drafts
	saver  Saver
}

func NewController(log *slog.Logger, eng Engine, drafts *Drafts, saver Saver) *Controller {
	return &Controller{log: log, eng: eng, drafts: drafts, saver: saver}
}

func (c *Controller) Drafts() *Drafts { return c.drafts }

// Send runs one turn in the draft draftID, creating the draft if needed.
// ok is false when input was blank and nothing happened.
func (c *Controller) Send(ctx context.Context, draftID, input string) (turn Turn, ok bool, err error) {
	if !ValidDraftID(draftID) {
		return Turn{}, false, ErrBadDraftID
	}
	if strings.TrimSpace(input) == "" {
		return Turn{}, false, nil
	}
	conv := c.drafts.Open(draftID)
	turn, ok, err = conv.Submit(ctx, c.eng, input)
	if err != nil || !ok {
		return turn, ok, err
	}
	if turn.Failed() {
		c.log.Warn("chat turn failed", "draft", conv.ID, "err", turn.Err)
	} else {
		c.log.Info("chat turn", "draft", conv.ID, "messages", conv.Len())
	}
	return turn, true, nil
}

// Save stores the draft as a session and drops the draft. It returns
// ErrNothingToSave when the draft has no messages.
func (c *Controller) Save(ctx context.Context, draftID string) (string, error) {
	conv, ok := c.drafts.Get(draftID)
	if !ok || conv.Len() == 0 {
		return "", ErrNothingToSave
	}
	if conv.Loading() {
		return "", ErrBusy
	}
	id, err := c.saver.SaveChat(ctx, conv.Messages())
	if err != nil {
		c.log.Error("save chat", "draft", draftID, "err", err)
		return "", err
	}
	c.drafts.Delete(draftID)
	return id, nil
}

// Reset empties the draft. Unknown drafts are already empty.
func (c *Controller) Reset(draftID string) error {
	conv, ok := c.drafts.Get(draftID)
	if !ok {
		return nil
	}
	if err := conv.Reset(); err != nil {
		return err
	}
	c.log.Info("chat reset", "draft", draftID)
	return nil
}
