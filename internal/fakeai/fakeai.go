// Package fakeai defines the domain types shared across the fabrication
// pipeline. This package has no project imports -- it is the dependency
// root.
package fakeai

import (
	"context"
	"encoding/json"
	"time"
)

// --- Wire types (OpenAI-compatible) ---

// ChatRequest represents an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model            string          `json:"model"`
	Messages         []Message       `json:"messages"`
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"top_p,omitempty"`
	N                int             `json:"n,omitempty"`
	Stream           bool            `json:"stream,omitempty"`
	StreamOptions    *StreamOptions  `json:"stream_options,omitempty"`
	Stop             json.RawMessage `json:"stop,omitempty"`
	MaxTokens        *int            `json:"max_tokens,omitempty"`
	PresencePenalty  *float64        `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	Seed             *int            `json:"seed,omitempty"`
	User             string          `json:"user,omitempty"`
	Tools            []Tool          `json:"tools,omitempty"`
	ToolChoice       json.RawMessage `json:"tool_choice,omitempty"`
	ResponseFormat   *ResponseFormat `json:"response_format,omitempty"`
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role             string          `json:"role"`
	Content          json.RawMessage `json:"content"`
	Name             string          `json:"name,omitempty"`
	ToolCalls        []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID       string          `json:"tool_call_id,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
}

// ContentText extracts message content as a plain string, handling both the
// OpenAI string form and the multi-part array form (text parts concatenated).
func (m Message) ContentText() string {
	if len(m.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(m.Content, &parts); err == nil {
		out := ""
		for _, p := range parts {
			if p.Type == "text" {
				out += p.Text
			}
		}
		return out
	}
	return ""
}

// Tool describes a callable function offered to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function definition within a Tool.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall represents one invocation choice emitted by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction is the function payload of a ToolCall.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ResponseFormat controls structured-output generation.
type ResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *JSONSchemaSpec `json:"json_schema,omitempty"`
}

// JSONSchemaSpec names and carries a JSON Schema document for structured output.
type JSONSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict,omitempty"`
	Schema json.RawMessage `json:"schema"`
}

// ChatResponse represents an OpenAI-compatible chat completion response.
type ChatResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage statistics.
type Usage struct {
	PromptTokens        int                  `json:"prompt_tokens"`
	CompletionTokens    int                  `json:"completion_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	PromptTokensDetails *PromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

// PromptTokensDetails breaks down the prompt-token count.
type PromptTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// StreamChunk represents a single SSE frame forwarded to the client.
type StreamChunk struct {
	Data      []byte // raw SSE "data: ..." payload, excluding the "data: " prefix/newline
	Done      bool
	Keepalive bool // true for a ": keep-alive" comment rather than a data frame
	Err       error
}

// CompletionRequest represents a legacy OpenAI text completion request.
type CompletionRequest struct {
	Model       string          `json:"model"`
	Prompt      json.RawMessage `json:"prompt"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	N           int             `json:"n,omitempty"`
	Stop        json.RawMessage `json:"stop,omitempty"`
	Seed        *int            `json:"seed,omitempty"`
	User        string          `json:"user,omitempty"`
}

// PromptText extracts the prompt as a plain string, handling both the
// single-string and single-element-array forms OpenAI accepts.
func (c CompletionRequest) PromptText() string {
	var s string
	if err := json.Unmarshal(c.Prompt, &s); err == nil {
		return s
	}
	var many []string
	if err := json.Unmarshal(c.Prompt, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

// CompletionResponse represents a legacy OpenAI text completion response.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice is a single legacy completion choice.
type CompletionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// ModerationRequest represents an OpenAI moderation request.
type ModerationRequest struct {
	Input json.RawMessage `json:"input"`
	Model string          `json:"model,omitempty"`
}

// ModerationResponse represents an OpenAI moderation response.
type ModerationResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Results []ModerationResult `json:"results"`
}

// ModerationResult is a single moderation classification.
type ModerationResult struct {
	Flagged        bool                       `json:"flagged"`
	Categories     map[string]bool            `json:"categories"`
	CategoryScores map[string]float64         `json:"category_scores"`
}

// EmbeddingRequest represents an OpenAI-compatible embedding request.
type EmbeddingRequest struct {
	Model          string          `json:"model"`
	Input          json.RawMessage `json:"input"`
	EncodingFormat string          `json:"encoding_format,omitempty"`
	User           string          `json:"user,omitempty"`
}

// EmbeddingResponse represents an OpenAI-compatible embedding response.
type EmbeddingResponse struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  *Usage      `json:"usage,omitempty"`
}

// Embedding is a single embedding vector entry.
type Embedding struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// --- Records (§3 Data Model) ---

// TerminalStatus is the terminal outcome of a request or stream.
type TerminalStatus string

const (
	StatusSuccess   TerminalStatus = "success"
	StatusError     TerminalStatus = "error"
	StatusCancelled TerminalStatus = "cancelled"
)

// RequestRecord tracks one in-flight or completed HTTP request end to end.
// Created on arrival; mutated only by the owning request task.
type RequestRecord struct {
	ID             string
	Endpoint       string
	Model          string
	CreatedAt      int64 // unix seconds
	Streaming      bool
	InputTokens    int
	OutputTokens   int
	CachedTokens   int
	APIKey         string
	WorkerID       int
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time
	Status         TerminalStatus
	ErrorKind      ErrorKind
}

// DurationMs returns the completed request's wall-clock duration in ms.
func (r *RequestRecord) DurationMs() float64 {
	if r.EndTime.IsZero() || r.StartTime.IsZero() {
		return 0
	}
	return float64(r.EndTime.Sub(r.StartTime).Microseconds()) / 1000.0
}

// TokenEvent is one emitted token within a stream.
type TokenEvent struct {
	Sequence  int
	Text      string
	Timestamp time.Time
	Bytes     int
}

// StreamState is the lifecycle state of a StreamRecord.
type StreamState string

const (
	StreamActive    StreamState = "active"
	StreamCompleted StreamState = "completed"
	StreamFailed    StreamState = "failed"
	StreamCancelled StreamState = "cancelled"
)

// StreamRecord tracks a single streaming chat completion.
type StreamRecord struct {
	ID           string
	RequestID    string
	Tokens       []TokenEvent
	FinishReason string
	State        StreamState
	ErrorKind    ErrorKind
}

// --- Error taxonomy (§7) ---

// ErrorKind classifies a failure for observability and envelope shaping.
type ErrorKind string

const (
	ErrKindValidation      ErrorKind = "validation"
	ErrKindAuth             ErrorKind = "auth"
	ErrKindRateLimit        ErrorKind = "rate-limit"
	ErrKindContextOverflow  ErrorKind = "context-overflow"
	ErrKindNotFound         ErrorKind = "not-found"
	ErrKindTimeout          ErrorKind = "timeout"
	ErrKindCancelled        ErrorKind = "cancelled"
	ErrKindOverload         ErrorKind = "overload"
	ErrKindInternal         ErrorKind = "internal"
)

// --- Context keys ---

type contextKey int

const ctxKeyMeta contextKey = 0

// requestMeta bundles per-request values into a single context allocation
// instead of chaining multiple context.WithValue calls.
type requestMeta struct {
	RequestID string
	APIKey    string
}

func metaFromContext(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(ctxKeyMeta).(*requestMeta)
	return m
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.RequestID
	}
	return ""
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if m := metaFromContext(ctx); m != nil {
		m.RequestID = id
		return ctx
	}
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{RequestID: id})
}

// APIKeyFromContext extracts the caller's API key from context.
func APIKeyFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.APIKey
	}
	return ""
}

// ContextWithAPIKey stores the API key in the existing requestMeta if present.
func ContextWithAPIKey(ctx context.Context, key string) context.Context {
	if m := metaFromContext(ctx); m != nil {
		m.APIKey = key
		return ctx
	}
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{APIKey: key})
}
