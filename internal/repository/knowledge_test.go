package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/campusdesk/campusdesk/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*KnowledgeRepository, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	return NewKnowledgeRepository(pool), pool
}

func draft(category domain.Category, title, content string, tags ...string) domain.KnowledgeDraft {
	return domain.KnowledgeDraft{
		Category: category,
		Title:    title,
		Content:  content,
		Tags:     tags,
	}
}

func TestRepositoryAddAndGet(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	item, err := repo.Add(ctx, draft(domain.CategoryPolicy, "门诊报销比例", "门诊80%", "报销", "医保"))
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, domain.CategoryPolicy, got.Category)
	assert.Equal(t, "门诊80%", got.Content)
	assert.Equal(t, []string{"报销", "医保"}, got.Tags)
	assert.WithinDuration(t, time.Now().UTC(), got.CreatedAt, time.Minute)
}

func TestRepositoryAddValidates(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Add(context.Background(), draft("bogus", "t", "c"))
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeValidation, derr.Code)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}

func TestRepositoryUpdate(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	item, err := repo.Add(ctx, draft(domain.CategoryPolicy, "门诊报销比例", "门诊80%", "报销"))
	require.NoError(t, err)

	content := "门诊85%"
	tags := []string{"报销", "报销", "门诊"}
	updated, err := repo.Update(ctx, item.ID, domain.KnowledgePatch{
		Content: &content,
		Tags:    &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "门诊报销比例", updated.Title, "absent fields keep their values")
	assert.Equal(t, "门诊85%", updated.Content)
	assert.Equal(t, []string{"报销", "门诊"}, updated.Tags, "duplicate tags collapse")
	assert.Equal(t, item.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.False(t, updated.UpdatedAt.Before(item.UpdatedAt))

	_, err = repo.Update(ctx, "no-such-id", domain.KnowledgePatch{Content: &content})
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	item, err := repo.Add(ctx, draft(domain.CategoryPolicy, "t", "c"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepositoryListByCategoryInsertionOrder(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for _, title := range []string{"甲", "乙", "丙"} {
		_, err := repo.Add(ctx, draft(domain.CategoryProcedure, title, "内容"))
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, draft(domain.CategoryContacts, "丁", "内容"))
	require.NoError(t, err)

	items, err := repo.ListByCategory(ctx, domain.CategoryProcedure)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "甲", items[0].Title)
	assert.Equal(t, "乙", items[1].Title)
	assert.Equal(t, "丙", items[2].Title)
}

func TestRepositorySearch(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, draft(domain.CategoryPolicy, "门诊报销比例", "门诊80%", "报销"))
	require.NoError(t, err)
	_, err = repo.Add(ctx, draft(domain.CategoryProcedure, "报销办理流程", "先提交材料"))
	require.NoError(t, err)
	_, err = repo.Add(ctx, draft(domain.CategoryContacts, "财务处电话", "0571-88888888"))
	require.NoError(t, err)

	results, err := repo.Search(ctx, store.SearchQuery{Text: "报销"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Greater(t, res.Score, 0.0)
	}

	results, err = repo.Search(ctx, store.SearchQuery{Text: "报销", Category: domain.CategoryPolicy})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.CategoryPolicy, results[0].Item.Category)

	results, err = repo.Search(ctx, store.SearchQuery{Text: "不存在的词汇组合"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRepositoryStats(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.Add(ctx, draft(domain.CategoryPolicy, "t", "c"))
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, draft(domain.CategoryCourse, "t", "c"))
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[domain.CategoryPolicy])
	assert.Equal(t, 1, stats[domain.CategoryCourse])
}

func TestRepositoryExport(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	first, err := repo.Add(ctx, draft(domain.CategoryPolicy, "甲", "内容甲"))
	require.NoError(t, err)
	_, err = repo.Add(ctx, draft(domain.CategoryPolicy, "乙", "内容乙"))
	require.NoError(t, err)

	data, err := repo.Export(ctx)
	require.NoError(t, err)

	var doc struct {
		Revision uint64 `json:"revision"`
		Items    []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, uint64(2), doc.Revision)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, first.ID, doc.Items[0].ID)
	assert.Equal(t, "甲", doc.Items[0].Title)
}
