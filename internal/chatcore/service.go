// Package chatcore fabricates chat completions and embeddings: resolve the
// model and validate context length up front, then serve the call entirely
// in-process instead of forwarding it to a real provider.
package chatcore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/fakeai"
	"github.com/fakeai-dev/fakeai/internal/kvcache"
	"github.com/fakeai-dev/fakeai/internal/latency"
	"github.com/fakeai-dev/fakeai/internal/models"
	"github.com/fakeai-dev/fakeai/internal/streaming"
	"github.com/fakeai-dev/fakeai/internal/tokengen"
	"github.com/fakeai-dev/fakeai/internal/trackers"
)

// DefaultMaxTokens is used when a request omits max_tokens.
const DefaultMaxTokens = 16

// Service fabricates OpenAI-wire-compatible responses without any real
// inference backend.
type Service struct {
	Models    *models.Registry
	Counter   *tokengen.Counter
	Generator *tokengen.Generator
	Sampler   *latency.Sampler
	Router    *kvcache.Router // nil disables KV-cache simulation
	Engine    *streaming.Engine
	Bus       *bus.Bus

	// Dynamo records per-request latency breakdowns. It is fed by a direct
	// call rather than a bus subscription: its payload shape (phase
	// breakdown) doesn't map onto the generic lifecycle event the bus
	// carries, so there is nothing a generic subscriber could adapt.
	Dynamo *trackers.DynamoTracker
}

// NewService wires the fabrication pipeline from its component parts.
func NewService(reg *models.Registry, sampler *latency.Sampler, router *kvcache.Router, engine *streaming.Engine, b *bus.Bus) *Service {
	return &Service{
		Models:    reg,
		Counter:   tokengen.NewCounter(),
		Generator: tokengen.NewGenerator(),
		Sampler:   sampler,
		Router:    router,
		Engine:    engine,
		Bus:       b,
		Dynamo:    trackers.NewDynamoTracker(),
	}
}

type plan struct {
	requestID     string
	descriptor    *models.Descriptor
	promptTokens  int
	maxTokens     int
	matchedTokens int
	workerID      int
	toolCall      *fakeai.ToolCall
}

// prepare resolves the model, validates context, and routes the request
// through the KV-cache simulation. It is shared by ChatCompletion and
// ChatCompletionStream so both paths see identical token accounting.
func (s *Service) prepare(req *fakeai.ChatRequest) (plan, error) {
	desc := s.Models.Get(req.Model)
	promptTokens := s.Counter.EstimateRequest(req.Model, req.Messages)

	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	if err := ValidateContext(desc.ContextWindow, promptTokens, maxTokens); err != nil {
		return plan{}, err
	}

	requestID := "chatcmpl-" + uuid.NewString()

	matched, workerID := 0, 0
	if s.Router != nil {
		var text strings.Builder
		for _, m := range req.Messages {
			text.WriteString(m.ContentText())
			text.WriteString(" ")
		}
		tokens := kvcache.Tokenize(text.String())
		res := s.Router.Route(tokens)
		matched = res.MatchedTokens
		workerID = res.WorkerID
		if s.Bus != nil {
			s.Bus.Publish(bus.NewCache(requestID, bus.CachePayload{
				Endpoint:      "/v1/chat/completions",
				MatchedTokens: matched,
				TotalTokens:   res.TotalBlocks * kvcache.DefaultBlockSize,
				WorkerID:      workerID,
			}))
		}
	}

	toolCall := decideToolCall(requestID, req.Tools, req.ToolChoice)

	return plan{
		requestID:     requestID,
		descriptor:    desc,
		promptTokens:  promptTokens,
		maxTokens:     maxTokens,
		matchedTokens: matched,
		workerID:      workerID,
		toolCall:      toolCall,
	}, nil
}

// ChatCompletion fabricates a non-streaming chat completion response.
func (s *Service) ChatCompletion(ctx context.Context, req *fakeai.ChatRequest) (*fakeai.ChatResponse, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if s.Bus != nil {
		s.Bus.Publish(bus.NewRequestLifecycle(bus.KindRequestStarted, p.requestID, bus.RequestLifecyclePayload{
			Endpoint: "/v1/chat/completions", Model: req.Model,
		}))
	}

	ttftMs := s.Sampler.TTFT(p.requestID, p.matchedTokens, p.promptTokens)
	select {
	case <-time.After(time.Duration(ttftMs) * time.Millisecond):
	case <-ctx.Done():
		return nil, fakeai.ErrCancelled
	}

	message := fakeai.Message{Role: "assistant"}
	finishReason := "stop"
	outputTokens := 0

	if p.toolCall != nil {
		message.ToolCalls = []fakeai.ToolCall{*p.toolCall}
		finishReason = "tool_calls"
		outputTokens = s.Counter.CountText(p.toolCall.Function.Arguments)
	} else {
		n := p.maxTokens
		content := s.Generator.Text(p.requestID, n)
		message.Content = marshalString(content)
		outputTokens = n
		if p.maxTokens == 0 {
			finishReason = "length"
		}
		if desc := p.descriptor; desc.Capabilities.Reasoning {
			r := tokengen.ReasoningTokenCount(p.maxTokens)
			message.ReasoningContent = s.Generator.Text(p.requestID+":reasoning", r)
			outputTokens += r
		}
	}

	resp := &fakeai.ChatResponse{
		ID:      p.requestID,
		Object:  "chat.completion",
		Created: start.Unix(),
		Model:   req.Model,
		Choices: []fakeai.Choice{{Index: 0, Message: message, FinishReason: finishReason}},
		Usage: &fakeai.Usage{
			PromptTokens:     p.promptTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      p.promptTokens + outputTokens,
			PromptTokensDetails: &fakeai.PromptTokensDetails{
				CachedTokens: p.matchedTokens,
			},
		},
	}

	durationMs := float64(time.Since(start).Milliseconds())
	if s.Bus != nil {
		s.Bus.Publish(bus.NewRequestLifecycle(bus.KindRequestCompleted, p.requestID, bus.RequestLifecyclePayload{
			Endpoint: "/v1/chat/completions", Model: req.Model, Status: string(fakeai.StatusSuccess),
			InputTokens: p.promptTokens, OutputTokens: outputTokens, CachedTokens: p.matchedTokens,
			DurationMs: durationMs,
		}))
		s.Bus.Publish(bus.NewUsage(bus.KindUsageRecorded, p.requestID, bus.UsagePayload{
			APIKey: fakeai.APIKeyFromContext(ctx), Model: req.Model,
			InputTokens: p.promptTokens, OutputTokens: outputTokens, CachedTokens: p.matchedTokens,
		}))
	}
	if s.Dynamo != nil {
		s.Dynamo.Record(trackers.LatencyBreakdown{
			RequestID: p.requestID, Status: string(fakeai.StatusSuccess),
			PrefillMs: ttftMs, DecodeMs: durationMs - ttftMs, TotalMs: durationMs,
			OutputTokens: outputTokens,
		})
	}

	return resp, nil
}

// ChatCompletionStream fabricates a streaming chat completion, returning a
// channel of raw SSE data frames.
func (s *Service) ChatCompletionStream(ctx context.Context, req *fakeai.ChatRequest) (<-chan fakeai.StreamChunk, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	finishReason := ""
	switch {
	case p.toolCall != nil:
		finishReason = "tool_calls"
	case p.maxTokens == 0:
		finishReason = "length"
	}

	includeUsage := req.StreamOptions != nil && req.StreamOptions.IncludeUsage

	if s.Bus != nil {
		s.Bus.Publish(bus.NewRequestLifecycle(bus.KindRequestStarted, p.requestID, bus.RequestLifecyclePayload{
			Endpoint: "/v1/chat/completions", Model: req.Model,
		}))
	}

	apiKey := fakeai.APIKeyFromContext(ctx)

	chunks := make(chan fakeai.StreamChunk, 8)
	go func() {
		result := s.Engine.Run(ctx, streaming.Request{
			ID:              p.requestID,
			Model:           req.Model,
			OutputTokens:    p.maxTokens,
			MatchedTokens:   p.matchedTokens,
			TotalContextLen: p.promptTokens,
			ToolCall:        p.toolCall,
			FinishReason:    finishReason,
			PromptTokens:    p.promptTokens,
			IncludeUsage:    includeUsage,
		}, chunks)

		status := streamStatus(result.State)
		if s.Bus != nil {
			lifecycleKind := bus.KindRequestCompleted
			if status != fakeai.StatusSuccess {
				lifecycleKind = bus.KindRequestFailed
			}
			s.Bus.Publish(bus.NewRequestLifecycle(lifecycleKind, p.requestID, bus.RequestLifecyclePayload{
				Endpoint: "/v1/chat/completions", Model: req.Model, Status: string(status),
				InputTokens: p.promptTokens, OutputTokens: result.TokensSent, CachedTokens: p.matchedTokens,
				DurationMs: result.TotalMs,
			}))
			if status == fakeai.StatusSuccess {
				s.Bus.Publish(bus.NewUsage(bus.KindUsageRecorded, p.requestID, bus.UsagePayload{
					APIKey: apiKey, Model: req.Model,
					InputTokens: p.promptTokens, OutputTokens: result.TokensSent, CachedTokens: p.matchedTokens,
				}))
			}
		}

		if s.Dynamo != nil {
			s.Dynamo.Record(trackers.LatencyBreakdown{
				RequestID: p.requestID, Status: string(status),
				PrefillMs: result.TTFTMs, DecodeMs: result.TotalMs - result.TTFTMs, TotalMs: result.TotalMs,
				OutputTokens: result.TokensSent,
			})
		}
	}()

	return chunks, nil
}

func streamStatus(state streaming.State) fakeai.TerminalStatus {
	switch state {
	case streaming.StateDone:
		return fakeai.StatusSuccess
	case streaming.StateCancelled:
		return fakeai.StatusCancelled
	default:
		return fakeai.StatusError
	}
}

// Embeddings fabricates a deterministic embedding vector per input (a fixed
// 8 dimensions for every model; the model descriptor is not consulted;
// values are stable hashes of the input text, not semantically meaningful).
func (s *Service) Embeddings(_ context.Context, req *fakeai.EmbeddingRequest) (*fakeai.EmbeddingResponse, error) {
	inputs, err := decodeEmbeddingInput(req.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fakeai.ErrValidation, err)
	}

	data := make([]fakeai.Embedding, len(inputs))
	totalTokens := 0
	for i, text := range inputs {
		data[i] = fakeai.Embedding{Object: "embedding", Embedding: fabricateVector(text, 8), Index: i}
		totalTokens += s.Counter.CountText(text)
	}

	return &fakeai.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  req.Model,
		Usage:  &fakeai.Usage{PromptTokens: totalTokens, TotalTokens: totalTokens},
	}, nil
}

func marshalString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}
