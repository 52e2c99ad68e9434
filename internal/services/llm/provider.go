package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
)

// NewCompletionService creates the completion oracle for the configured
// provider. Both providers satisfy interfaces.CompletionService; callers
// never see which one is behind it.
func NewCompletionService(
	config *common.Config,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
) (interfaces.CompletionService, error) {
	provider := common.LLMProvider(strings.ToLower(string(config.LLM.DefaultProvider)))
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing completion service")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&config.Gemini, kvStorage, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&config.Claude, kvStorage, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
