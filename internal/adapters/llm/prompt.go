package llm

import "strings"

const baseSystemPrompt = `
You are the drafting assistant of a scheduling and email coordination tool.
Every text you write is reviewed by a human before anything is sent or booked.

General style guidelines:
- Answer in the SAME LANGUAGE as the request.
- Be brief and concrete. Never invent dates, times, names or facts not in the request.
- Do not include greetings to the reader of this instruction, explanations, or markdown.
`

// BuildSystemPrompt combines the base prompt with task instructions.
func BuildSystemPrompt(task string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(baseSystemPrompt))
	if task = strings.TrimSpace(task); task != "" {
		b.WriteString("\n\nTask:\n")
		b.WriteString(task)
	}
	return b.String()
}
