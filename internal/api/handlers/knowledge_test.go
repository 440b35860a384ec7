package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *store.FileStore) {
	t.Helper()

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "knowledge.json"))
	require.NoError(t, err)

	h := NewKnowledgeHandler(st)
	r := chi.NewRouter()
	r.Route("/knowledge", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	r.Post("/search", h.Search)

	return r, st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func createItem(t *testing.T, r http.Handler, category, title, content string) KnowledgeResponse {
	t.Helper()

	rec := doJSON(t, r, "POST", "/knowledge", CreateKnowledgeRequest{
		Category: category,
		Title:    title,
		Content:  content,
		Tags:     []string{"报销"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item KnowledgeResponse
	decodeData(t, rec, &item)
	return item
}

func TestKnowledgeCreateAndGet(t *testing.T) {
	r, _ := newTestRouter(t)

	item := createItem(t, r, "policy", "报销比例", "门诊80%")
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "policy", item.Category)

	rec := doJSON(t, r, "GET", "/knowledge/"+item.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got KnowledgeResponse
	decodeData(t, rec, &got)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "门诊80%", got.Content)
}

func TestKnowledgeCreateValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "POST", "/knowledge", CreateKnowledgeRequest{
		Category: "policy",
		Content:  "missing title",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, "POST", "/knowledge", CreateKnowledgeRequest{
		Category: "bogus",
		Title:    "t",
		Content:  "c",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnowledgeGetNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "GET", "/knowledge/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKnowledgeUpdate(t *testing.T) {
	r, _ := newTestRouter(t)
	item := createItem(t, r, "policy", "报销比例", "门诊80%")

	title := "住院报销比例"
	rec := doJSON(t, r, "PUT", "/knowledge/"+item.ID, UpdateKnowledgeRequest{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated KnowledgeResponse
	decodeData(t, rec, &updated)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "门诊80%", updated.Content, "absent fields stay unchanged")

	// Blanking a required field is rejected.
	empty := ""
	rec = doJSON(t, r, "PUT", "/knowledge/"+item.ID, UpdateKnowledgeRequest{Title: &empty})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnowledgeDelete(t *testing.T) {
	r, _ := newTestRouter(t)
	item := createItem(t, r, "policy", "报销比例", "门诊80%")

	rec := doJSON(t, r, "DELETE", "/knowledge/"+item.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var del DeleteKnowledgeResponse
	decodeData(t, rec, &del)
	assert.True(t, del.Deleted)

	// Second delete reports not-deleted, still 200.
	rec = doJSON(t, r, "DELETE", "/knowledge/"+item.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &del)
	assert.False(t, del.Deleted)
}

func TestKnowledgeList(t *testing.T) {
	r, _ := newTestRouter(t)
	createItem(t, r, "policy", "甲", "内容甲")
	createItem(t, r, "policy", "乙", "内容乙")
	createItem(t, r, "contacts", "丙", "内容丙")

	rec := doJSON(t, r, "GET", "/knowledge?category=policy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list KnowledgeListResponse
	decodeData(t, rec, &list)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "甲", list.Items[0].Title)
	assert.Equal(t, "乙", list.Items[1].Title)

	rec = doJSON(t, r, "GET", "/knowledge", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "category is required")

	rec = doJSON(t, r, "GET", "/knowledge?category=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnowledgeSearch(t *testing.T) {
	r, _ := newTestRouter(t)
	createItem(t, r, "policy", "门诊报销比例", "门诊80%")
	createItem(t, r, "procedure", "报销办理流程", "先提交材料")

	rec := doJSON(t, r, "POST", "/search", SearchRequest{Query: "报销"})
	require.Equal(t, http.StatusOK, rec.Code)

	var results SearchResponse
	decodeData(t, rec, &results)
	assert.Len(t, results.Results, 2)

	rec = doJSON(t, r, "POST", "/search", SearchRequest{Query: "报销", Category: "policy"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &results)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "policy", results.Results[0].Item.Category)
	assert.Greater(t, results.Results[0].Score, 0.0)

	rec = doJSON(t, r, "POST", "/search", SearchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "query is required")
}

func TestKnowledgeStats(t *testing.T) {
	r, _ := newTestRouter(t)
	createItem(t, r, "policy", "甲", "内容")
	createItem(t, r, "policy", "乙", "内容")
	createItem(t, r, "contacts", "丙", "内容")

	rec := doJSON(t, r, "GET", "/knowledge/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	decodeData(t, rec, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Categories["policy"])
	assert.Equal(t, 1, stats.Categories["contacts"])
}
