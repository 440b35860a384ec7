package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/google/uuid"
)

// snapshot is one immutable view of the store. Readers load it atomically
// and never block; writers build a replacement under fs.mu, persist it, then
// swap the pointer.
type snapshot struct {
	items    map[string]*domain.KnowledgeItem
	order    []string // item ids in insertion order
	revision uint64
}

// FileStore is a write-through knowledge store backed by one JSON file.
// Every mutation is durable before it returns: the new state is written to a
// temp file and renamed over the old one, so a crash never leaves a torn
// file and a reader never observes a partially written item.
type FileStore struct {
	path string

	mu   sync.Mutex // serializes writers only
	snap atomic.Pointer[snapshot]

	now   func() time.Time
	newID func() string
}

type fileItem struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type fileDoc struct {
	Revision uint64     `json:"revision"`
	Items    []fileItem `json:"items"`
}

// NewFileStore opens (or initializes) the knowledge file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		now:   time.Now,
		newID: uuid.NewString,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFileStoreWithClock is NewFileStore with injectable clock and id
// generator, for tests that need controlled timestamps.
func NewFileStoreWithClock(path string, now func() time.Time, newID func() string) (*FileStore, error) {
	s := &FileStore{path: path, now: now, newID: newID}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	snap := &snapshot{items: make(map[string]*domain.KnowledgeItem)}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.snap.Store(snap)
		return nil
	case err != nil:
		return fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse knowledge file %s: %w", s.path, err)
	}

	snap.revision = doc.Revision
	for _, fi := range doc.Items {
		item := &domain.KnowledgeItem{
			ID:        fi.ID,
			Category:  domain.Category(fi.Category),
			Title:     fi.Title,
			Content:   fi.Content,
			Tags:      fi.Tags,
			Metadata:  fi.Metadata,
			CreatedAt: fi.CreatedAt,
			UpdatedAt: fi.UpdatedAt,
		}
		snap.items[item.ID] = item
		snap.order = append(snap.order, item.ID)
	}

	s.snap.Store(snap)
	return nil
}

// Add assigns a fresh id, validates the draft, and appends the item.
func (s *FileStore) Add(ctx context.Context, draft domain.KnowledgeDraft) (*domain.KnowledgeItem, error) {
	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.NewKnowledgeItem(s.newID(), draft, s.now().UTC())

	next := s.copySnapshot()
	next.items[item.ID] = item
	next.order = append(next.order, item.ID)

	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.snap.Store(next)
	return item.Clone(), nil
}

// Get returns the item with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	item, ok := s.snap.Load().items[id]
	if !ok {
		return nil, domain.ErrKnowledgeNotFound
	}
	return item.Clone(), nil
}

// Update merges the patch into the item. ID and category are immutable; the
// fully resolved item is returned.
func (s *FileStore) Update(ctx context.Context, id string, patch domain.KnowledgePatch) (*domain.KnowledgeItem, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.snap.Load().items[id]
	if !ok {
		return nil, domain.ErrKnowledgeNotFound
	}

	item := cur.Clone()
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.Tags != nil {
		item.Tags = domain.NormalizeTags(*patch.Tags)
	}
	if patch.Metadata != nil {
		item.Metadata = *patch.Metadata
	}
	item.UpdatedAt = s.now().UTC()

	next := s.copySnapshot()
	next.items[id] = item

	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.snap.Store(next)
	return item.Clone(), nil
}

// Delete removes the item permanently. Returns false when the id is absent.
func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.Load().items[id]; !ok {
		return false, nil
	}

	next := s.copySnapshot()
	delete(next.items, id)
	for i, oid := range next.order {
		if oid == id {
			next.order = append(next.order[:i:i], next.order[i+1:]...)
			break
		}
	}

	if err := s.persist(next); err != nil {
		return false, err
	}
	s.snap.Store(next)
	return true, nil
}

// ListByCategory returns the category's items in insertion order.
func (s *FileStore) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.KnowledgeItem, error) {
	snap := s.snap.Load()
	var out []*domain.KnowledgeItem
	for _, id := range snap.order {
		item := snap.items[id]
		if item.Category == category {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// Search scores every candidate lexically and returns the ranked results.
func (s *FileStore) Search(ctx context.Context, q SearchQuery) ([]domain.SearchResult, error) {
	terms := Tokenize(q.Text)
	if len(terms) == 0 {
		return nil, nil
	}

	snap := s.snap.Load()
	var results []domain.SearchResult
	for _, id := range snap.order {
		item := snap.items[id]
		if q.Category != "" && item.Category != q.Category {
			continue
		}
		if score := ScoreItem(item, terms); score > 0 {
			results = append(results, domain.SearchResult{Item: item.Clone(), Score: score})
		}
	}

	return RankResults(results, q.Limit), nil
}

// Stats returns the item count per category.
func (s *FileStore) Stats(ctx context.Context) (map[domain.Category]int, error) {
	snap := s.snap.Load()
	stats := make(map[domain.Category]int)
	for _, item := range snap.items {
		stats[item.Category]++
	}
	return stats, nil
}

// Export returns the serialized store contents, as written to disk. Used by
// the snapshot archiver.
func (s *FileStore) Export(ctx context.Context) ([]byte, error) {
	return marshalSnapshot(s.snap.Load())
}

// copySnapshot clones the current snapshot's map and order slice (items are
// immutable once published, so they are shared) and bumps the revision.
func (s *FileStore) copySnapshot() *snapshot {
	cur := s.snap.Load()
	next := &snapshot{
		items:    make(map[string]*domain.KnowledgeItem, len(cur.items)+1),
		order:    append([]string(nil), cur.order...),
		revision: cur.revision + 1,
	}
	for id, item := range cur.items {
		next.items[id] = item
	}
	return next
}

func (s *FileStore) persist(snap *snapshot) error {
	data, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create knowledge dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".knowledge-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp knowledge file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write knowledge file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close knowledge file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace knowledge file: %w", err)
	}
	return nil
}

func marshalSnapshot(snap *snapshot) ([]byte, error) {
	doc := fileDoc{Revision: snap.revision, Items: make([]fileItem, 0, len(snap.order))}
	for _, id := range snap.order {
		item := snap.items[id]
		doc.Items = append(doc.Items, fileItem{
			ID:        item.ID,
			Category:  string(item.Category),
			Title:     item.Title,
			Content:   item.Content,
			Tags:      item.Tags,
			Metadata:  item.Metadata,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal knowledge file: %w", err)
	}
	return data, nil
}

var _ Store = (*FileStore)(nil)
