// Package session persists saved research chats. A saved chat carries a
// derived title, preview and topic tags, and the whole history is stored as
// one JSON array under a single key of a kv.Store.
package session

import (
	"errors"

	"github.com/varsilias/researchpaper/pkg/types"
)

var ErrNotFound = errors.New("chat session not found")

// ChatSession is immutable once saved; it is only ever deleted as a whole.
type ChatSession struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Timestamp string          `json:"timestamp"`
	Messages  []types.Message `json:"messages"`
	Preview   string          `json:"preview"`
	Tags      []string        `json:"tags"`
}
