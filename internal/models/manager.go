// Package models answers which completion models the service can use.
package models

import (
	"context"
	"errors"
)

var ErrUnknownModel = errors.New("unknown model")

type Manager interface {
	List(ctx context.Context) ([]string, error)
	Healthy(ctx context.Context, model string) error
}

// StaticManager serves a fixed list, used when no upstream can be asked.
type StaticManager struct{ items []string }

func NewStaticManager(items ...string) *StaticManager {
	return &StaticManager{items: append([]string(nil), items...)}
}

func (m *StaticManager) List(context.Context) ([]string, error) {
	return append([]string(nil), m.items...), nil
}

func (m *StaticManager) Healthy(_ context.Context, model string) error {
	return lookup(m.items, model)
}

func lookup(items []string, model string) error {
	for _, id := range items {
		if id == model {
			return nil
		}
	}
	return ErrUnknownModel
}
