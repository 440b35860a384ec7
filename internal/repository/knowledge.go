// Package repository provides the Postgres-backed knowledge store. It honors
// the same contract as the JSON file backend: durable writes, insertion-order
// listing, and the shared lexical ranking.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type KnowledgeRepository struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*KnowledgeRepository)(nil)

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{pool: pool}
}

func (r *KnowledgeRepository) Add(ctx context.Context, draft domain.KnowledgeDraft) (*domain.KnowledgeItem, error) {
	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	item := domain.NewKnowledgeItem(uuid.New().String(), draft, time.Now().UTC())
	_, err := r.pool.Exec(ctx,
		`INSERT INTO knowledge_items (id, category, title, content, tags, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Category, item.Title, item.Content, item.Tags, item.Metadata, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *KnowledgeRepository) Get(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	item, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, category, title, content, tags, metadata, created_at, updated_at
		 FROM knowledge_items WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *KnowledgeRepository) Update(ctx context.Context, id string, patch domain.KnowledgePatch) (*domain.KnowledgeItem, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	item, err := r.scanOne(r.pool.QueryRow(ctx,
		`UPDATE knowledge_items SET
		   title      = COALESCE($2, title),
		   content    = COALESCE($3, content),
		   tags       = COALESCE($4, tags),
		   metadata   = COALESCE($5, metadata),
		   updated_at = $6
		 WHERE id = $1
		 RETURNING id, category, title, content, tags, metadata, created_at, updated_at`,
		id, patch.Title, patch.Content, patchTags(patch.Tags), patch.Metadata, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *KnowledgeRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM knowledge_items WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *KnowledgeRepository) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.KnowledgeItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, title, content, tags, metadata, created_at, updated_at
		 FROM knowledge_items WHERE category = $1 ORDER BY seq ASC`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *KnowledgeRepository) Search(ctx context.Context, q store.SearchQuery) ([]domain.SearchResult, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if q.Category != "" {
		rows, err = r.pool.Query(ctx,
			`SELECT id, category, title, content, tags, metadata, created_at, updated_at
			 FROM knowledge_items WHERE category = $1`,
			q.Category,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, category, title, content, tags, metadata, created_at, updated_at
			 FROM knowledge_items`,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := r.scanRows(rows)
	if err != nil {
		return nil, err
	}

	terms := store.Tokenize(q.Text)
	results := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		score := store.ScoreItem(item, terms)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{Item: item, Score: score})
	}
	return store.RankResults(results, q.Limit), nil
}

func (r *KnowledgeRepository) Stats(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM knowledge_items GROUP BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[domain.Category]int)
	for rows.Next() {
		var category domain.Category
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		stats[category] = n
	}
	return stats, rows.Err()
}

type exportItem struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type exportDoc struct {
	Revision uint64       `json:"revision"`
	Items    []exportItem `json:"items"`
}

// Export serializes the table contents in the knowledge file format, for the
// snapshot archiver.
func (r *KnowledgeRepository) Export(ctx context.Context) ([]byte, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, title, content, tags, metadata, created_at, updated_at
		 FROM knowledge_items ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := r.scanRows(rows)
	if err != nil {
		return nil, err
	}

	var revision uint64
	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM knowledge_items`,
	).Scan(&revision); err != nil {
		return nil, err
	}

	doc := exportDoc{Revision: revision, Items: make([]exportItem, 0, len(items))}
	for _, item := range items {
		doc.Items = append(doc.Items, exportItem{
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
	return json.MarshalIndent(doc, "", "  ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *KnowledgeRepository) scanOne(row rowScanner) (*domain.KnowledgeItem, error) {
	var item domain.KnowledgeItem
	err := row.Scan(
		&item.ID, &item.Category, &item.Title, &item.Content,
		&item.Tags, &item.Metadata, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *KnowledgeRepository) scanRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var items []*domain.KnowledgeItem
	for rows.Next() {
		item, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// patchTags normalizes a tags patch before it hits the database, keeping the
// dedup contract identical to the file backend.
func patchTags(tags *[]string) *[]string {
	if tags == nil {
		return nil
	}
	normalized := domain.NormalizeTags(*tags)
	if normalized == nil {
		normalized = []string{}
	}
	return &normalized
}
