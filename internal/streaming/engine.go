package streaming

import (
	"context"
	"time"

	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/fakeai"
	"github.com/fakeai-dev/fakeai/internal/latency"
	"github.com/fakeai-dev/fakeai/internal/tokengen"
)

// State is one step of the streaming state machine.
type State string

const (
	StateNew        State = "new"
	StatePrefill    State = "prefill"
	StateFirstToken State = "first_token"
	StateDecoding   State = "decoding"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// DefaultKeepaliveInterval and DefaultStreamTimeout/DefaultTokenTimeout are
// the engine's built-in defaults.
const (
	DefaultKeepaliveInterval = 15 * time.Second
	DefaultStreamTimeout     = 300 * time.Second
	DefaultTokenTimeout      = 30 * time.Second
)

// Request bundles what the engine needs to fabricate one streamed chat
// completion.
type Request struct {
	ID              string
	Model           string
	OutputTokens    int
	MatchedTokens   int
	TotalContextLen int
	ToolCall        *fakeai.ToolCall // non-nil when the response should emit a tool call instead of content
	FinishReason    string
	PromptTokens    int
	IncludeUsage    bool // stream_options.include_usage: emit a trailing usage-only chunk
}

// Engine drives one stream's state machine to completion, emitting
// fakeai.StreamChunk values on the returned channel. The channel is closed
// when the stream reaches a terminal state.
type Engine struct {
	sampler   *latency.Sampler
	generator *tokengen.Generator
	bus       *bus.Bus

	KeepaliveInterval time.Duration
	StreamTimeout     time.Duration
	TokenTimeout      time.Duration
}

// NewEngine constructs an Engine with its built-in defaults.
func NewEngine(sampler *latency.Sampler, generator *tokengen.Generator, b *bus.Bus) *Engine {
	return &Engine{
		sampler:           sampler,
		generator:         generator,
		bus:               b,
		KeepaliveInterval: DefaultKeepaliveInterval,
		StreamTimeout:     DefaultStreamTimeout,
		TokenTimeout:      DefaultTokenTimeout,
	}
}

// Result summarizes a finished stream, used by the caller to record usage
// and dynamo-latency trackers once the channel closes.
type Result struct {
	State        State
	TTFTMs       float64
	TokensSent   int
	TotalMs      float64
	FinishReason string
}

// Run executes the full state machine, writing raw SSE "data: ..." payloads
// (excluding the DONE sentinel, which the HTTP handler writes once the
// channel closes cleanly) to chunks. It returns once the stream reaches a
// terminal state or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, req Request, chunks chan<- fakeai.StreamChunk) Result {
	defer close(chunks)

	start := time.Now()
	created := start.Unix()
	e.publishStream(bus.KindStreamStarted, req, bus.StreamPayload{Model: req.Model})

	ttftMs := e.sampler.TTFT(req.ID, req.MatchedTokens, req.TotalContextLen)
	select {
	case <-time.After(time.Duration(ttftMs) * time.Millisecond):
	case <-ctx.Done():
		return e.cancelled(req, start)
	}

	words := e.generator.Words(req.ID, req.OutputTokens)
	e.publishStream(bus.KindStreamFirstToken, req, bus.StreamPayload{Model: req.Model, TTFTMs: ttftMs})

	select {
	case chunks <- fakeai.StreamChunk{Data: buildRoleChunk(req.ID, req.Model, created)}:
	case <-ctx.Done():
		return e.cancelled(req, start)
	}

	sent := 0
	deadline := time.NewTimer(e.StreamTimeout)
	defer deadline.Stop()

	keepaliveInterval := e.KeepaliveInterval
	if keepaliveInterval <= 0 {
		keepaliveInterval = DefaultKeepaliveInterval
	}
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for i, word := range words {
		itlMs := e.sampler.ITL(req.ID, i)
		timer := time.NewTimer(time.Duration(itlMs) * time.Millisecond)
	wordWait:
		for {
			select {
			case <-timer.C:
				break wordWait
			case <-ctx.Done():
				timer.Stop()
				return e.cancelled(req, start)
			case <-deadline.C:
				timer.Stop()
				return e.failed(req, start, fakeai.ErrTimeout)
			case <-keepalive.C:
				select {
				case chunks <- fakeai.StreamChunk{Keepalive: true}:
				case <-ctx.Done():
					timer.Stop()
					return e.cancelled(req, start)
				}
			}
		}
		timer.Stop()

		var data []byte
		if req.ToolCall != nil {
			data = buildToolCallDeltaChunk(req.ID, req.Model, created, 0, req.ToolCall.Function.Name, word)
		} else {
			content := word
			if i > 0 {
				content = " " + word
			}
			data = buildDeltaChunk(req.ID, req.Model, created, map[string]any{"content": content}, "")
		}

		select {
		case chunks <- fakeai.StreamChunk{Data: data}:
			sent++
		case <-ctx.Done():
			return e.cancelled(req, start)
		}

		e.publishToken(req, i, word)
	}

	finish := req.FinishReason
	if finish == "" {
		finish = "stop"
	}
	select {
	case chunks <- fakeai.StreamChunk{Data: buildFinishChunk(req.ID, req.Model, created, finish)}:
	case <-ctx.Done():
		return e.cancelled(req, start)
	}

	if req.IncludeUsage {
		usage := fakeai.Usage{
			PromptTokens:     req.PromptTokens,
			CompletionTokens: sent,
			TotalTokens:      req.PromptTokens + sent,
		}
		select {
		case chunks <- fakeai.StreamChunk{Data: buildUsageChunk(req.ID, req.Model, created, usage)}:
		case <-ctx.Done():
			return e.cancelled(req, start)
		}
	}

	totalMs := float64(time.Since(start).Milliseconds())
	tokensPerSec := 0.0
	if totalMs > 0 {
		tokensPerSec = float64(sent) / (totalMs / 1000)
	}
	e.publishStream(bus.KindStreamCompleted, req, bus.StreamPayload{Model: req.Model, TTFTMs: ttftMs, TokensPerS: tokensPerSec, FinishReason: finish})

	return Result{State: StateDone, TTFTMs: ttftMs, TokensSent: sent, TotalMs: totalMs, FinishReason: finish}
}

func (e *Engine) cancelled(req Request, start time.Time) Result {
	e.publishStream(bus.KindStreamCancelled, req, bus.StreamPayload{Model: req.Model})
	return Result{State: StateCancelled, TotalMs: float64(time.Since(start).Milliseconds())}
}

func (e *Engine) failed(req Request, start time.Time, cause error) Result {
	e.publishStream(bus.KindStreamFailed, req, bus.StreamPayload{Model: req.Model})
	if e.bus != nil {
		e.bus.Publish(bus.NewError(bus.KindErrorOccurred, req.ID, bus.ErrorPayload{Kind: string(fakeai.Kind(cause)), Detail: cause.Error()}))
	}
	return Result{State: StateFailed, TotalMs: float64(time.Since(start).Milliseconds())}
}

func (e *Engine) publishStream(kind bus.Kind, req Request, p bus.StreamPayload) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.NewStream(kind, req.ID, req.ID, p))
}

func (e *Engine) publishToken(req Request, sequence int, word string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.NewToken(bus.KindTokenGenerated, req.ID, req.ID, bus.TokenPayload{
		Sequence: sequence, Text: word, Bytes: len(word),
	}))
}
