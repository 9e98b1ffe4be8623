package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsageAddAccumulates(t *testing.T) {
	var total TokenUsage
	total.Add(TokenUsage{InputTokens: 100, OutputTokens: 20, CacheCreationInputTokens: 5})
	total.Add(TokenUsage{InputTokens: 40, OutputTokens: 10, CacheReadInputTokens: 7})

	assert.Equal(t, int64(140), total.InputTokens)
	assert.Equal(t, int64(30), total.OutputTokens)
	assert.Equal(t, int64(5), total.CacheCreationInputTokens)
	assert.Equal(t, int64(7), total.CacheReadInputTokens)
}
