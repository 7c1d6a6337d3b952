package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/varsilias/researchpaper/internal/session"
)

const (
	DefaultMaxDrafts = 500
	DefaultDraftTTL  = 24 * time.Hour
)

// NewDraftID returns an id for a draft that does not exist yet. The draft is
// only registered once a message is sent to it.
func NewDraftID() string { return uuid.NewString() }

// ValidDraftID reports whether id has the shape NewDraftID produces.
func ValidDraftID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Drafts holds the live conversations of the running process. Nothing here
// survives a restart; only saved chats are persisted. Drafts idle longer
// than the TTL are pruned and the least recently updated one is evicted once
// the cap is reached. Drafts waiting on a reply are never dropped.
type Drafts struct {
	mu    sync.RWMutex
	items map[string]*Conversation
	max   int
	ttl   time.Duration
	now   func() time.Time
}

type DraftOption func(*Drafts)

// WithMaxDrafts caps the number of live drafts. Zero or less disables the cap.
func WithMaxDrafts(n int) DraftOption {
	return func(d *Drafts) { d.max = n }
}

// WithDraftTTL sets how long an untouched draft is kept. Zero or less keeps
// drafts until evicted by the cap.
func WithDraftTTL(ttl time.Duration) DraftOption {
	return func(d *Drafts) { d.ttl = ttl }
}

func WithDraftClock(now func() time.Time) DraftOption {
	return func(d *Drafts) { d.now = now }
}

func NewDrafts(opts ...DraftOption) *Drafts {
	d := &Drafts{
		items: make(map[string]*Conversation),
		max:   DefaultMaxDrafts,
		ttl:   DefaultDraftTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Drafts) Get(id string) (*Conversation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.items[id]
	return c, ok
}

// Open returns the conversation for id, creating it when unknown.
func (d *Drafts) Open(id string) *Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.items[id]; ok {
		return c
	}
	d.pruneLocked()
	c := NewConversation(id)
	d.items[id] = c
	return c
}

func (d *Drafts) pruneLocked() {
	if d.ttl > 0 {
		cutoff := d.now().Add(-d.ttl)
		for id, c := range d.items {
			if !c.Loading() && c.Updated().Before(cutoff) {
				delete(d.items, id)
			}
		}
	}
	for d.max > 0 && len(d.items) >= d.max {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, c := range d.items {
			if c.Loading() {
				continue
			}
			if u := c.Updated(); oldestID == "" || u.Before(oldest) {
				oldestID, oldest = id, u
			}
		}
		if oldestID == "" {
			return
		}
		delete(d.items, oldestID)
	}
}

func (d *Drafts) Delete(id string) {
	d.mu.Lock()
	delete(d.items, id)
	d.mu.Unlock()
}

func (d *Drafts) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// Summary is a lightweight listing entry for a draft.
type Summary struct {
	ID       string
	Title    string
	Messages int
}

// List returns drafts that have at least one message, most recently updated
// first.
func (d *Drafts) List() []Summary {
	d.mu.RLock()
	convs := make([]*Conversation, 0, len(d.items))
	for _, c := range d.items {
		convs = append(convs, c)
	}
	d.mu.RUnlock()

	sort.SliceStable(convs, func(i, j int) bool { return convs[i].Updated().After(convs[j].Updated()) })

	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		msgs := c.Messages()
		if len(msgs) == 0 {
			continue
		}
		out = append(out, Summary{ID: c.ID, Title: session.GenerateTitle(msgs), Messages: len(msgs)})
	}
	return out
}
