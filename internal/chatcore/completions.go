package chatcore

import (
	"context"
	"encoding/json"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// Completion fabricates a legacy /v1/completions response by routing the
// prompt through the same chat pipeline as a single user message, then
// reshaping the result into the legacy wire shape.
func (s *Service) Completion(ctx context.Context, req *fakeai.CompletionRequest) (*fakeai.CompletionResponse, error) {
	content, _ := json.Marshal(req.PromptText())
	chatReq := &fakeai.ChatRequest{
		Model:       req.Model,
		Messages:    []fakeai.Message{{Role: "user", Content: content}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Seed:        req.Seed,
		User:        req.User,
	}

	resp, err := s.ChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	choices := make([]fakeai.CompletionChoice, len(resp.Choices))
	for i, c := range resp.Choices {
		choices[i] = fakeai.CompletionChoice{
			Index:        c.Index,
			Text:         c.Message.ContentText(),
			FinishReason: c.FinishReason,
		}
	}

	return &fakeai.CompletionResponse{
		ID:      resp.ID,
		Object:  "text_completion",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: choices,
		Usage:   resp.Usage,
	}, nil
}
