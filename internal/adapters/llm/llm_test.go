package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/huddle/internal/domain"
)

func TestMockLLM(t *testing.T) {
	m := NewMockLLM()

	out, err := m.Complete(context.Background(), domain.Completion{Prompt: "  Roadmap sync  "})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap sync", out)

	out, err = m.Complete(context.Background(), domain.Completion{System: "x", Prompt: "numbers", MaxChars: 10})
	require.NoError(t, err)
	assert.Len(t, []rune(out), 10)
}

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt("Name the meeting.")
	assert.Contains(t, p, "reviewed by a human")
	assert.Contains(t, p, "Task:\nName the meeting.")
	assert.NotContains(t, BuildSystemPrompt(""), "Task:")
}

func TestOutputTokens(t *testing.T) {
	assert.Equal(t, int32(1024), outputTokens(0))
	assert.Equal(t, int32(42), outputTokens(78))
}
