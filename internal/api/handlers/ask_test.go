package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/campusdesk/campusdesk/internal/rag"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAnswerer replays a fixed frame sequence for every question.
type scriptedAnswerer struct {
	frames    []rag.Message
	questions []string
}

func (a *scriptedAnswerer) Answer(_ context.Context, _ string, question string, sink rag.Sink) error {
	a.questions = append(a.questions, question)
	for _, frame := range a.frames {
		if frame.Type == rag.MessageStart {
			frame.Question = question
		}
		if err := sink.Send(frame); err != nil {
			return err
		}
	}
	return nil
}

func answerFrames() []rag.Message {
	return []rag.Message{
		{Type: rag.MessageStart},
		{Type: rag.MessageChunk, Content: "门诊报销"},
		{Type: rag.MessageChunk, Content: "比例为80%。"},
		{Type: rag.MessageSources, Content: []domain.Citation{
			{ID: "kb-1", Title: "门诊报销比例", Category: string(domain.CategoryPolicy), Score: 0.8},
		}},
		{Type: rag.MessageEnd, TotalTime: 1.25},
	}
}

func parseSSE(t *testing.T, body []byte) []rag.Message {
	t.Helper()

	var frames []rag.Message
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg rag.Message
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
		frames = append(frames, msg)
	}
	require.NoError(t, scanner.Err())
	return frames
}

func TestAskStream(t *testing.T) {
	answerer := &scriptedAnswerer{frames: answerFrames()}
	h := NewAskHandler(answerer)

	body, err := json.Marshal(AskRequest{Question: "感冒药能报销吗？"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/ask/stream", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	frames := parseSSE(t, rec.Body.Bytes())
	require.Len(t, frames, 5)
	assert.Equal(t, rag.MessageStart, frames[0].Type)
	assert.Equal(t, "感冒药能报销吗？", frames[0].Question)
	assert.Equal(t, rag.MessageChunk, frames[1].Type)
	assert.Equal(t, "门诊报销", frames[1].Content)
	assert.Equal(t, rag.MessageSources, frames[3].Type)
	assert.Equal(t, rag.MessageEnd, frames[4].Type)
	assert.InDelta(t, 1.25, frames[4].TotalTime, 1e-9)

	require.Len(t, answerer.questions, 1)
}

func TestAskStreamRejectsBadBody(t *testing.T) {
	h := NewAskHandler(&scriptedAnswerer{})

	req := httptest.NewRequest("POST", "/ask/stream", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestAskStreamErrorFrame(t *testing.T) {
	answerer := &scriptedAnswerer{frames: []rag.Message{
		{Type: rag.MessageError, Message: "问题不能为空"},
	}}
	h := NewAskHandler(answerer)

	body, _ := json.Marshal(AskRequest{Question: ""})
	req := httptest.NewRequest("POST", "/ask/stream", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	// Errors inside the stream still ride on a 200 response.
	require.Equal(t, http.StatusOK, rec.Code)
	frames := parseSSE(t, rec.Body.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, rag.MessageError, frames[0].Type)
	assert.Equal(t, "问题不能为空", frames[0].Message)
}

func TestAskWS(t *testing.T) {
	answerer := &scriptedAnswerer{frames: answerFrames()}
	h := NewAskHandler(answerer)

	srv := httptest.NewServer(http.HandlerFunc(h.AskWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(AskRequest{Question: "医保报销比例是多少"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frames []rag.Message
	for len(frames) < 5 {
		var msg rag.Message
		require.NoError(t, conn.ReadJSON(&msg))
		frames = append(frames, msg)
	}

	assert.Equal(t, rag.MessageStart, frames[0].Type)
	assert.Equal(t, "医保报销比例是多少", frames[0].Question)
	assert.Equal(t, rag.MessageEnd, frames[4].Type)

	// Second question on the same connection.
	require.NoError(t, conn.WriteJSON(AskRequest{Question: "住院呢"}))
	var msg rag.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, rag.MessageStart, msg.Type)
	assert.Equal(t, "住院呢", msg.Question)
}
