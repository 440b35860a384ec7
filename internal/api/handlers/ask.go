package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/campusdesk/campusdesk/internal/api"
	"github.com/campusdesk/campusdesk/internal/api/middleware"
	"github.com/campusdesk/campusdesk/internal/rag"
	"github.com/gorilla/websocket"
)

// Answerer runs one question through the answering pipeline, emitting
// protocol frames to the sink.
type Answerer interface {
	Answer(ctx context.Context, requestID, question string, sink rag.Sink) error
}

type AskHandler struct {
	answerer Answerer
	upgrader websocket.Upgrader
}

func NewAskHandler(answerer Answerer) *AskHandler {
	return &AskHandler{
		answerer: answerer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary campus portal origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type AskRequest struct {
	Question string `json:"question"`
}

// sseSink writes each protocol frame as one SSE data event, flushing after
// every frame so clients see tokens as they are generated.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(msg rag.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// AskStream answers one question over Server-Sent Events.
func (h *AskHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	requestID := middleware.GetRequestID(r.Context())
	sink := &sseSink{w: w, flusher: flusher}
	// The error frame, if any, has already been sent through the sink.
	_ = h.answerer.Answer(r.Context(), requestID, req.Question, sink)
}

// wsSink serializes concurrent frame writes onto one WebSocket connection.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(msg rag.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// AskWS upgrades to a WebSocket and answers questions until the client
// disconnects. Each incoming text frame is one {"question": ...} request;
// questions on the same connection are answered sequentially.
func (h *AskHandler) AskWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	requestID := middleware.GetRequestID(r.Context())
	sink := &wsSink{conn: conn}

	for {
		var req AskRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("request %s: websocket read failed: %v", requestID, err)
			}
			return
		}

		if err := h.answerer.Answer(r.Context(), requestID, req.Question, sink); err != nil {
			// The protocol error frame has already been sent; only a dead
			// connection ends the session.
			if r.Context().Err() != nil {
				return
			}
		}
	}
}
