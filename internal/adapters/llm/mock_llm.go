package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/huddle/internal/domain"
)

// MockLLM answers deterministically from the prompt. Used in local mode.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, req domain.Completion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(req.Prompt)
	var out string
	switch req.System {
	case "":
		out = prompt
	default:
		out = fmt.Sprintf("Regarding %q: happy to help with this.", prompt)
	}
	if req.MaxChars > 0 && utf8.RuneCountInString(out) > req.MaxChars {
		out = string([]rune(out)[:req.MaxChars])
	}
	return out, nil
}
