package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/varsilias/researchpaper/internal/kv"
	"github.com/varsilias/researchpaper/pkg/types"
)

// Store keeps the saved history in memory, newest first, and rewrites the
// whole serialized list on every mutation. The in-memory list only changes
// after the write succeeds.
type Store struct {
	log *slog.Logger
	kv  kv.Store
	key string
	now func() time.Time

	mu      sync.RWMutex
	history []ChatSession
}

type Option func(*Store)

// WithClock overrides time.Now, used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(log *slog.Logger, backend kv.Store, key string, opts ...Option) *Store {
	s := &Store{
		log:     log,
		kv:      backend,
		key:     key,
		now:     time.Now,
		history: []ChatSession{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted history. A missing key yields an empty history;
// an unparsable value is replaced by an empty list.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.history = []ChatSession{}
		return nil
	}

	var loaded []ChatSession
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.log.Warn("failed to parse chat history, resetting", "key", s.key, "err", err)
		if err := s.persist(ctx, []ChatSession{}); err != nil {
			return err
		}
		s.history = []ChatSession{}
		return nil
	}
	if loaded == nil {
		loaded = []ChatSession{}
	}
	s.history = loaded
	return nil
}

// History returns a copy of the saved chats, newest first.
func (s *Store) History() []ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatSession, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// SaveChat stores msgs as a new session at the head of the history and
// returns its id. An empty msgs is a no-op and returns "".
func (s *Store) SaveChat(ctx context.Context, msgs []types.Message) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat := New(msgs, s.now(), s.taken)
	updated := make([]ChatSession, 0, len(s.history)+1)
	updated = append(updated, chat)
	updated = append(updated, s.history...)

	if err := s.persist(ctx, updated); err != nil {
		return "", err
	}
	s.history = updated
	s.log.Info("chat saved", "id", chat.ID, "messages", len(chat.Messages), "tags", chat.Tags)
	return chat.ID, nil
}

// taken must be called with mu held.
func (s *Store) taken(id string) bool {
	for _, c := range s.history {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) GetChatByID(id string) (ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.history {
		if c.ID == id {
			return c, true
		}
	}
	return ChatSession{}, false
}

// DeleteChat removes the session with id. It reports whether a session was
// removed; an unknown id leaves the history untouched.
func (s *Store) DeleteChat(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]ChatSession, 0, len(s.history))
	for _, c := range s.history {
		if c.ID != id {
			updated = append(updated, c)
		}
	}
	if len(updated) == len(s.history) {
		return false, nil
	}
	if err := s.persist(ctx, updated); err != nil {
		return false, err
	}
	s.history = updated
	return true, nil
}

func (s *Store) ClearAllHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, []ChatSession{}); err != nil {
		return err
	}
	s.history = []ChatSession{}
	return nil
}

func (s *Store) persist(ctx context.Context, history []ChatSession) error {
	b, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
