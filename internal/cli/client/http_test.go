package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

func TestAPIClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/knowledge/kb-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":"kb-1","title":"门诊报销比例"}}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Get("/knowledge/kb-1")
	require.NoError(t, err)

	var item Knowledge
	require.NoError(t, json.Unmarshal(resp.Data, &item))
	assert.Equal(t, "kb-1", item.ID)
	assert.Equal(t, "门诊报销比例", item.Title)
}

func TestAPIClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"knowledge item not found"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Get("/knowledge/missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "knowledge item not found", apiErr.Message)
}

func TestAPIClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Get("/health")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestAPIClientPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req CreateKnowledgeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "policy", req.Category)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"kb-1"}}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Post("/knowledge", CreateKnowledgeRequest{
		Category: "policy",
		Title:    "t",
		Content:  "c",
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
}

func TestPostStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"start\",\"question\":\"你好\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"chunk\",\"content\":\"你好！\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"sources\",\"content\":[]}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"end\",\"total_time\":0.42}\n\n")
	}))
	defer srv.Close()

	var events []StreamEvent
	err := newTestClient(srv.URL).PostStream("/ask/stream", AskRequest{Question: "你好"}, func(ev StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, "start", events[0].Type)
	assert.Equal(t, "你好", events[0].Question)
	var chunk string
	require.NoError(t, json.Unmarshal(events[1].Content, &chunk))
	assert.Equal(t, "你好！", chunk)
	assert.InDelta(t, 0.42, events[3].TotalTime, 1e-9)
}

func TestPostStreamCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"start\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"end\"}\n\n")
	}))
	defer srv.Close()

	stop := errors.New("stop")
	err := newTestClient(srv.URL).PostStream("/ask/stream", AskRequest{Question: "q"}, func(ev StreamEvent) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestPostStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid request body"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).PostStream("/ask/stream", AskRequest{Question: "q"}, func(ev StreamEvent) error {
		return nil
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid request body", apiErr.Message)
}
