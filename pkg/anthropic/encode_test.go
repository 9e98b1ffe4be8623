package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, ExtractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON(`Here you go: {"a":1} as requested.`))
	assert.Equal(t, `{"a":{"b":2}}`, ExtractJSON(`{"a":{"b":2}}`))
	assert.Equal(t, "no json here", ExtractJSON("no json here"))
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "world"},
	}}
	assert.Equal(t, "hello world", resp.Text())
}
