// Package store defines the knowledge store contract shared by the JSON file
// backend and the Postgres backend, plus the lexical relevance scorer both
// backends use so the ordering contract is identical.
package store

import (
	"context"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// DefaultSearchLimit caps search results when the caller does not set one.
const DefaultSearchLimit = 10

// SearchQuery describes one free-text search against the store.
type SearchQuery struct {
	Text     string
	Category domain.Category // empty means no category filter
	Limit    int             // <= 0 means DefaultSearchLimit
}

// Store is the single owner of all knowledge item data. Readers hold
// time-bounded views only; implementations must make every mutation durable
// before returning and must never let a reader observe a partial write.
type Store interface {
	Add(ctx context.Context, draft domain.KnowledgeDraft) (*domain.KnowledgeItem, error)
	Get(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	Update(ctx context.Context, id string, patch domain.KnowledgePatch) (*domain.KnowledgeItem, error)
	// Delete reports whether an item existed; deleting an absent id is not
	// an error.
	Delete(ctx context.Context, id string) (bool, error)
	// ListByCategory returns items in insertion order.
	ListByCategory(ctx context.Context, category domain.Category) ([]*domain.KnowledgeItem, error)
	// Search returns results ordered by descending score, ties broken by
	// most-recent-update then id ascending.
	Search(ctx context.Context, q SearchQuery) ([]domain.SearchResult, error)
	// Stats returns the item count per category.
	Stats(ctx context.Context) (map[domain.Category]int, error)
}
