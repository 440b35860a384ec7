package rag

import (
	"log"
	"sync"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// emitter states. The legal per-request sequences are
//
//	start chunk* sources end          (success)
//	start chunk* [sources] error      (failure after acceptance)
//	error                             (input rejected before processing)
//
// with exactly one terminal frame.
type emitterState int

const (
	stateInit emitterState = iota
	stateStarted
	stateSourced
	stateClosed
)

// Emitter enforces the output protocol's ordering contract centrally, so no
// orchestrator call site has to be trusted. An out-of-order emission attempt
// is logged and dropped — the frame is never sent and the connection is
// never torn down for it.
type Emitter struct {
	mu    sync.Mutex
	sink  Sink
	state emitterState
}

func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

// Start emits the start frame echoing the accepted question.
func (e *Emitter) Start(question string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateInit {
		return e.violation("start")
	}
	if err := e.sink.Send(Message{Type: MessageStart, Question: question}); err != nil {
		e.state = stateClosed
		return err
	}
	e.state = stateStarted
	return nil
}

// Chunk emits one answer fragment. Fragments are relayed in emission order.
func (e *Emitter) Chunk(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateStarted {
		return e.violation("chunk")
	}
	if err := e.sink.Send(Message{Type: MessageChunk, Content: content}); err != nil {
		e.state = stateClosed
		return err
	}
	return nil
}

// Sources emits the provenance frame; an empty citation list is still sent.
func (e *Emitter) Sources(citations []domain.Citation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateStarted {
		return e.violation("sources")
	}
	if err := e.sink.Send(Message{Type: MessageSources, Content: sourcesContent(citations)}); err != nil {
		e.state = stateClosed
		return err
	}
	e.state = stateSourced
	return nil
}

// End emits the success terminal frame with the total elapsed seconds.
func (e *Emitter) End(totalTime float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateSourced {
		return e.violation("end")
	}
	e.state = stateClosed
	return e.sink.Send(Message{Type: MessageEnd, TotalTime: totalTime})
}

// Error emits the failure terminal frame. It is legal from any non-terminal
// state, including before start (input rejected during validation).
func (e *Emitter) Error(message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateClosed {
		return e.violation("error")
	}
	e.state = stateClosed
	return e.sink.Send(Message{Type: MessageError, Message: message})
}

// Closed reports whether a terminal frame has already been emitted.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateClosed
}

func (e *Emitter) violation(frame string) error {
	log.Printf("emitter: dropped out-of-order %q frame (state %d)", frame, e.state)
	return domain.ErrProtocolViolation
}
