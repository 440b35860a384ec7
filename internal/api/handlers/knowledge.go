package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/campusdesk/campusdesk/internal/api"
	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/go-chi/chi/v5"
)

type KnowledgeHandler struct {
	store store.Store
}

func NewKnowledgeHandler(st store.Store) *KnowledgeHandler {
	return &KnowledgeHandler{store: st}
}

type CreateKnowledgeRequest struct {
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

type UpdateKnowledgeRequest struct {
	Title    *string            `json:"title"`
	Content  *string            `json:"content"`
	Tags     *[]string          `json:"tags"`
	Metadata *map[string]string `json:"metadata"`
}

type KnowledgeResponse struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Tags      []string          `json:"tags"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func knowledgeToResponse(item *domain.KnowledgeItem) *KnowledgeResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return &KnowledgeResponse{
		ID:        item.ID,
		Category:  string(item.Category),
		Title:     item.Title,
		Content:   item.Content,
		Tags:      tags,
		Metadata:  item.Metadata,
		CreatedAt: item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *KnowledgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft := domain.KnowledgeDraft{
		Category: domain.Category(req.Category),
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Metadata: req.Metadata,
	}
	if err := domain.ValidateDraft(draft); err != nil {
		api.HandleError(w, err)
		return
	}

	item, err := h.store.Add(r.Context(), draft)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, knowledgeToResponse(item))
}

func (h *KnowledgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, knowledgeToResponse(item))
}

func (h *KnowledgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := domain.KnowledgePatch{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Metadata: req.Metadata,
	}
	if err := domain.ValidatePatch(patch); err != nil {
		api.HandleError(w, err)
		return
	}

	item, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, knowledgeToResponse(item))
}

type DeleteKnowledgeResponse struct {
	Deleted bool `json:"deleted"`
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DeleteKnowledgeResponse{Deleted: deleted})
}

type KnowledgeListResponse struct {
	Items []*KnowledgeResponse `json:"items"`
}

func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("category"))
	if category == "" {
		api.Error(w, http.StatusBadRequest, "category is required")
		return
	}
	if !domain.IsValidCategory(category) {
		api.Error(w, http.StatusBadRequest, "unrecognized category")
		return
	}

	items, err := h.store.ListByCategory(r.Context(), category)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*KnowledgeResponse, len(items))
	for i, item := range items {
		responses[i] = knowledgeToResponse(item)
	}

	api.Success(w, http.StatusOK, KnowledgeListResponse{Items: responses})
}

type SearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

type SearchResultResponse struct {
	Item  *KnowledgeResponse `json:"item"`
	Score float64            `json:"score"`
}

type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	category := domain.Category(req.Category)
	if category != "" && !domain.IsValidCategory(category) {
		api.Error(w, http.StatusBadRequest, "unrecognized category")
		return
	}

	results, err := h.store.Search(r.Context(), store.SearchQuery{
		Text:     req.Query,
		Category: category,
		Limit:    req.Limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]SearchResultResponse, len(results))
	for i, res := range results {
		out[i] = SearchResultResponse{
			Item:  knowledgeToResponse(res.Item),
			Score: res.Score,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: out})
}

type StatsResponse struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := StatsResponse{Categories: make(map[string]int, len(stats))}
	for category, n := range stats {
		out.Categories[string(category)] = n
		out.Total += n
	}

	api.Success(w, http.StatusOK, out)
}
