package models

import (
	"context"

	"github.com/varsilias/researchpaper/internal/upstream"
)

// UpstreamManager lists the models offered by the completion API.
type UpstreamManager struct{ c upstream.Client }

func NewUpstreamManager(c upstream.Client) *UpstreamManager { return &UpstreamManager{c: c} }

func (m *UpstreamManager) List(ctx context.Context) ([]string, error) {
	items, err := m.c.Models(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out, nil
}

// Healthy reports whether model is in the upstream listing.
func (m *UpstreamManager) Healthy(ctx context.Context, model string) error {
	items, err := m.List(ctx)
	if err != nil {
		return err
	}
	return lookup(items, model)
}
