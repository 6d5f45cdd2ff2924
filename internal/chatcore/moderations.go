package chatcore

import (
	"github.com/google/uuid"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

var moderationCategories = []string{
	"sexual", "hate", "harassment", "self-harm", "sexual/minors",
	"hate/threatening", "violence/graphic", "self-harm/intent",
	"self-harm/instructions", "harassment/threatening", "violence",
}

// Moderation fabricates a stub moderation classification: every category
// scores near zero and nothing is ever flagged, since there is no real
// classifier behind FakeAI.
func (s *Service) Moderation(req *fakeai.ModerationRequest) (*fakeai.ModerationResponse, error) {
	inputs, err := decodeEmbeddingInput(req.Input)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = "text-moderation-latest"
	}

	results := make([]fakeai.ModerationResult, len(inputs))
	for i, text := range inputs {
		vec := fabricateVector(text, len(moderationCategories))
		categories := make(map[string]bool, len(moderationCategories))
		scores := make(map[string]float64, len(moderationCategories))
		for j, cat := range moderationCategories {
			score := (vec[j] + 1) / 20 // map [-1,1) into a low [0, 0.1) score band
			if score < 0 {
				score = -score
			}
			scores[cat] = score
			categories[cat] = false
		}
		results[i] = fakeai.ModerationResult{Flagged: false, Categories: categories, CategoryScores: scores}
	}

	return &fakeai.ModerationResponse{
		ID:      "modr-" + uuid.NewString(),
		Model:   model,
		Results: results,
	}, nil
}
