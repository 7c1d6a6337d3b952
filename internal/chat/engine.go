package chat

import (
	"context"

	"github.com/varsilias/researchpaper/pkg/types"
)

// Engine produces the assistant reply for a conversation. relay.Service is
// the production implementation.
type Engine interface {
	Complete(ctx context.Context, msgs []types.Message) (types.Message, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, msgs []types.Message) (types.Message, error)

func (f EngineFunc) Complete(ctx context.Context, msgs []types.Message) (types.Message, error) {
	return f(ctx, msgs)
}
