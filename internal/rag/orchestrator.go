// Package rag is the control loop of the question-answering core: it routes
// a question to one skill agent, retrieves the facts that agent may use,
// invokes the completion service, and relays the token stream through the
// protocol emitter.
package rag

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campusdesk/campusdesk/internal/agent"
	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/campusdesk/campusdesk/internal/llm"
	"github.com/campusdesk/campusdesk/internal/router"
	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/campusdesk/campusdesk/internal/telemetry"
)

// MaxQuestionRunes is the longest accepted question, counted in runes after
// trimming.
const MaxQuestionRunes = 500

const (
	defaultRetrievalTimeout  = 5 * time.Second
	defaultGenerationTimeout = 60 * time.Second
)

// request states, for logging only; transitions are linear with Failed
// reachable from anywhere.
const (
	stateReceived   = "received"
	stateClassified = "classified"
	stateRetrieved  = "retrieved"
	statePrompted   = "prompted"
	stateGenerating = "generating"
	stateCompleted  = "completed"
	stateFailed     = "failed"
)

// Orchestrator runs the per-request state machine. It holds no per-request
// state itself; every Answer call is independent and safe to run
// concurrently with others.
type Orchestrator struct {
	store     store.Store
	completer llm.Completer
	router    *router.IntentRouter
	agents    map[domain.Intent]agent.Agent

	retrievalTimeout  time.Duration
	generationTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeouts overrides the retrieval and generation deadlines.
func WithTimeouts(retrieval, generation time.Duration) Option {
	return func(o *Orchestrator) {
		if retrieval > 0 {
			o.retrievalTimeout = retrieval
		}
		if generation > 0 {
			o.generationTimeout = generation
		}
	}
}

// WithAgents replaces the agent set (tests).
func WithAgents(agents map[domain.Intent]agent.Agent) Option {
	return func(o *Orchestrator) { o.agents = agents }
}

func NewOrchestrator(st store.Store, completer llm.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:             st,
		completer:         completer,
		router:            router.New(),
		agents:            agent.All(),
		retrievalTimeout:  defaultRetrievalTimeout,
		generationTimeout: defaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer runs one question through the full state machine, emitting protocol
// frames to sink. It returns the error that failed the request, if any; the
// caller-visible error frame has already been sent by then.
func (o *Orchestrator) Answer(ctx context.Context, requestID, question string, sink Sink) error {
	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.Answer", telemetry.SpanAttributes{
		RequestID: requestID,
		Operation: "answer",
	})
	defer span.End()

	em := NewEmitter(sink)
	started := time.Now()

	// Received: validate before any retrieval or generation cost. A rejected
	// question gets a standalone error frame and no start.
	question = strings.TrimSpace(question)
	if question == "" {
		_ = em.Error("问题不能为空")
		return o.fail(requestID, stateReceived, domain.ErrEmptyQuestion)
	}
	if utf8.RuneCountInString(question) > MaxQuestionRunes {
		_ = em.Error("问题过长，请控制在500字以内")
		return o.fail(requestID, stateReceived, domain.ErrQuestionTooLong)
	}

	if err := em.Start(question); err != nil {
		return o.fail(requestID, stateReceived, err)
	}

	// Classified: always proceed with the top-ranked domain's agent.
	ranked := o.router.Classify(question)
	top := ranked[0]
	ag, ok := o.agents[top.Intent]
	if !ok {
		ag = o.agents[domain.IntentFallback]
	}
	log.Printf("request %s: domain=%s confidence=%.2f", requestID, top.Intent, top.Confidence)

	q, err := ag.BuildQuery(question)
	if err != nil {
		_ = em.Error("没能理解这个问题，请换个说法试试")
		return o.fail(requestID, stateClassified, err)
	}

	// Retrieved: empty result sets are valid; the agent frames the gap.
	var results []domain.SearchResult
	if !q.Skip {
		rctx, cancel := context.WithTimeout(ctx, o.retrievalTimeout)
		results, err = o.store.Search(rctx, store.SearchQuery{
			Text:     q.Terms,
			Category: q.Category,
			Limit:    5,
		})
		cancel()
		if err != nil {
			_ = em.Error("知识库暂时不可用，请稍后再试")
			return o.fail(requestID, stateRetrieved,
				domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, "knowledge search failed", err))
		}
	}

	// Prompted.
	prompt, used := ag.RenderPrompt(question, results)

	// Generating: relay chunks as they arrive; never buffer the answer
	// before relaying. The accumulated copy exists only for postprocessing.
	gctx, cancel := context.WithTimeout(ctx, o.generationTimeout)
	defer cancel()

	stream, err := o.completer.StreamCompletion(gctx, prompt)
	if err != nil {
		_ = em.Error("回答服务暂时不可用，请稍后再试")
		return o.fail(requestID, stateGenerating,
			domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "completion request failed", err))
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if errors.Is(gctx.Err(), context.DeadlineExceeded) {
				_ = em.Error("回答生成超时，请稍后再试")
				return o.fail(requestID, stateGenerating, domain.ErrGenerationTimedOut)
			}
			if ctx.Err() != nil {
				// Caller went away; stop relaying and release everything.
				return o.fail(requestID, stateGenerating, ctx.Err())
			}
			_ = em.Error("生成回答时出错，请稍后再试")
			return o.fail(requestID, stateGenerating,
				domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "completion stream failed", recvErr))
		}

		if err := em.Chunk(chunk); err != nil {
			// Sink write failed: the connection is gone, abandon the stream
			// at this chunk boundary.
			return o.fail(requestID, stateGenerating, err)
		}
		answer.WriteString(chunk)

		if ctx.Err() != nil {
			return o.fail(requestID, stateGenerating, ctx.Err())
		}
	}

	// Postprocessing may append agent-owned framing (e.g. contact cards);
	// relay any suffix as one more chunk so the streamed text and the final
	// answer agree.
	final, cites := ag.Postprocess(answer.String(), used)
	if streamed := answer.String(); final != streamed && strings.HasPrefix(final, strings.TrimSpace(streamed)) {
		if suffix := strings.TrimPrefix(final, strings.TrimSpace(streamed)); suffix != "" {
			if err := em.Chunk(suffix); err != nil {
				return o.fail(requestID, stateGenerating, err)
			}
		}
	}

	if err := em.Sources(cites); err != nil {
		return o.fail(requestID, stateGenerating, err)
	}

	elapsed := time.Since(started).Seconds()
	if err := em.End(elapsed); err != nil {
		return o.fail(requestID, stateCompleted, err)
	}

	log.Printf("request %s: %s in %.3fs (%d sources)", requestID, stateCompleted, elapsed, len(cites))
	return nil
}

func (o *Orchestrator) fail(requestID, state string, err error) error {
	log.Printf("request %s: %s at %s: %v", requestID, stateFailed, state, err)
	return err
}
