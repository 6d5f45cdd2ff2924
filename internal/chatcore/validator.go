package chatcore

import (
	"fmt"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// ValidateContext enforces that prompt_tokens + max_tokens must not exceed
// the model's context window. A maxTokens of zero or less skips the check.
func ValidateContext(contextWindow, promptTokens, maxTokens int) error {
	if maxTokens <= 0 {
		return nil
	}
	total := promptTokens + maxTokens
	if total <= contextWindow {
		return nil
	}
	return fmt.Errorf("%w: This model's maximum context length is %d tokens. However, your messages resulted in %d tokens (%d in the messages, %d in the completion). Please reduce the length of the messages or completion.",
		fakeai.ErrContextOverflow, contextWindow, total, promptTokens, maxTokens)
}
