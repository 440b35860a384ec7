package rag

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/campusdesk/campusdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every frame it is asked to send.
type recordingSink struct {
	messages []Message
	failAt   int // fail the nth Send (1-based), 0 means never
	sends    int
}

func (s *recordingSink) Send(msg Message) error {
	s.sends++
	if s.failAt > 0 && s.sends >= s.failAt {
		return errors.New("connection gone")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) types() []MessageType {
	out := make([]MessageType, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Type
	}
	return out
}

func TestEmitterSuccessSequence(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink)

	require.NoError(t, em.Start("问题"))
	require.NoError(t, em.Chunk("你"))
	require.NoError(t, em.Chunk("好"))
	require.NoError(t, em.Sources([]domain.Citation{{ID: "1"}}))
	require.NoError(t, em.End(1.5))

	assert.Equal(t, []MessageType{
		MessageStart, MessageChunk, MessageChunk, MessageSources, MessageEnd,
	}, sink.types())
	assert.True(t, em.Closed())
}

func TestEmitterStandaloneError(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink)

	// A rejected input gets an error frame without a start.
	require.NoError(t, em.Error("问题不能为空"))
	assert.Equal(t, []MessageType{MessageError}, sink.types())
	assert.True(t, em.Closed())
}

func TestEmitterMidStreamError(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink)

	require.NoError(t, em.Start("问题"))
	require.NoError(t, em.Chunk("部分"))
	require.NoError(t, em.Error("生成出错"))

	assert.Equal(t, []MessageType{MessageStart, MessageChunk, MessageError}, sink.types())

	// Nothing more goes out after the terminal frame.
	assert.ErrorIs(t, em.Chunk("x"), domain.ErrProtocolViolation)
	assert.ErrorIs(t, em.End(1), domain.ErrProtocolViolation)
	assert.ErrorIs(t, em.Error("again"), domain.ErrProtocolViolation)
	assert.Len(t, sink.messages, 3)
}

func TestEmitterDropsOutOfOrderFrames(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink)

	// Everything except start and error is illegal from the initial state.
	assert.ErrorIs(t, em.Chunk("x"), domain.ErrProtocolViolation)
	assert.ErrorIs(t, em.Sources(nil), domain.ErrProtocolViolation)
	assert.ErrorIs(t, em.End(1), domain.ErrProtocolViolation)
	assert.Empty(t, sink.messages, "dropped frames are never sent")

	require.NoError(t, em.Start("问题"))
	assert.ErrorIs(t, em.Start("再一次"), domain.ErrProtocolViolation)
	assert.ErrorIs(t, em.End(1), domain.ErrProtocolViolation, "end requires sources first")

	require.NoError(t, em.Sources(nil))
	assert.ErrorIs(t, em.Chunk("x"), domain.ErrProtocolViolation, "no chunks after sources")
	require.NoError(t, em.End(1))
}

func TestEmitterEmptySourcesStillSent(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink)

	require.NoError(t, em.Start("你好"))
	require.NoError(t, em.Sources(nil))

	require.Len(t, sink.messages, 2)
	content, ok := sink.messages[1].Content.([]domain.Citation)
	require.True(t, ok)
	assert.NotNil(t, content)
	assert.Empty(t, content)
}

func TestEmitterSinkFailureCloses(t *testing.T) {
	sink := &recordingSink{failAt: 2}
	em := NewEmitter(sink)

	require.NoError(t, em.Start("问题"))
	assert.Error(t, em.Chunk("x"))
	assert.True(t, em.Closed())

	// A dead connection stays dead; later frames are dropped.
	assert.ErrorIs(t, em.Error("oops"), domain.ErrProtocolViolation)
}

// TestEmitterSequenceInvariant drives the emitter with random call sequences
// and checks the sink only ever observes legal frame sequences with exactly
// one terminal frame.
func TestEmitterSequenceInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		sink := &recordingSink{}
		em := NewEmitter(sink)

		for op := 0; op < 12; op++ {
			switch rng.Intn(5) {
			case 0:
				_ = em.Start("q")
			case 1:
				_ = em.Chunk("c")
			case 2:
				_ = em.Sources(nil)
			case 3:
				_ = em.End(1)
			case 4:
				_ = em.Error("e")
			}
		}

		assertLegalSequence(t, sink.types())
	}
}

func assertLegalSequence(t *testing.T, seq []MessageType) {
	t.Helper()

	state := "init"
	for _, typ := range seq {
		switch state {
		case "init":
			switch typ {
			case MessageStart:
				state = "started"
			case MessageError:
				state = "closed"
			default:
				t.Fatalf("illegal %s from init in %v", typ, seq)
			}
		case "started":
			switch typ {
			case MessageChunk:
			case MessageSources:
				state = "sourced"
			case MessageError:
				state = "closed"
			default:
				t.Fatalf("illegal %s from started in %v", typ, seq)
			}
		case "sourced":
			switch typ {
			case MessageEnd, MessageError:
				state = "closed"
			default:
				t.Fatalf("illegal %s from sourced in %v", typ, seq)
			}
		case "closed":
			t.Fatalf("frame %s after terminal in %v", typ, seq)
		}
	}
}
