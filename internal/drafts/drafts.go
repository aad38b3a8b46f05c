// Package drafts persists generated content. Persistence is the caller's
// terminal step after generation; the generator itself never writes.
package drafts

import (
	"context"
	"slices"
	"sync"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/modes"
)

// DefaultListLimit applies when Filter.Limit is not positive.
const DefaultListLimit = 50

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status modes.Status
	Mode   string
	Limit  int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

func (f Filter) match(c *modes.GeneratedContent) bool {
	return (f.Status == "" || c.Status == f.Status) && (f.Mode == "" || c.Mode == f.Mode)
}

// Store saves and reads generated content, newest first.
type Store interface {
	Save(ctx context.Context, c *modes.GeneratedContent) error
	Get(ctx context.Context, id string) (*modes.GeneratedContent, error)
	List(ctx context.Context, f Filter) ([]*modes.GeneratedContent, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*modes.GeneratedContent
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]*modes.GeneratedContent)}
}

func (m *Memory) Save(_ context.Context, c *modes.GeneratedContent) error {
	if c == nil || c.ID == "" {
		return errs.NewInvalidInput("drafts.Save", "content id is required")
	}
	cp := *c
	m.mu.Lock()
	m.items[c.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*modes.GeneratedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[id]
	if !ok {
		return nil, errs.NewNotFound("draft", id)
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]*modes.GeneratedContent, error) {
	m.mu.RLock()
	out := make([]*modes.GeneratedContent, 0, len(m.items))
	for _, c := range m.items {
		if f.match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sortNewestFirst(out)
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return errs.NewNotFound("draft", id)
	}
	delete(m.items, id)
	return nil
}

func (m *Memory) Close() error { return nil }

// IDs are ULIDs, so descending ID order is newest first.
func sortNewestFirst(items []*modes.GeneratedContent) {
	slices.SortFunc(items, func(a, b *modes.GeneratedContent) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
