package usecase

import (
	"fmt"
	"strings"

	"iacgen/internal/domain/entity"
)

// defaultSnippetBudget bounds how many characters of reference snippet
// content go into one prompt.
const defaultSnippetBudget = 6000

// PromptContext is the explicit value a prompt is rendered from: the
// original request, the retrieved snippets in score order, and the prior
// attempt's diagnostics when retrying. Rendering is pure so it can be
// tested without any model.
type PromptContext struct {
	System        entity.Prompt
	Request       string
	Snippets      []entity.ScoredSnippet
	PreviousCode  string
	Diagnostics   []entity.Diagnostic
	SnippetBudget int
}

// Render assembles the full prompt text. Snippet content is truncated to
// the length budget, highest-scored snippets first; snippets that no longer
// fit are dropped entirely.
func (p PromptContext) Render() string {
	var b strings.Builder

	b.WriteString(p.System.Text)
	b.WriteString("\n\nInstruction:\n")
	b.WriteString(strings.TrimSpace(p.Request))

	budget := p.SnippetBudget
	if budget <= 0 {
		budget = defaultSnippetBudget
	}
	var refs []string
	for _, ss := range p.Snippets {
		if budget <= 0 {
			break
		}
		content := ss.Snippet.Content
		if len(content) > budget {
			content = content[:budget]
		}
		budget -= len(content)

		title := ss.Snippet.Title
		if title == "" {
			title = ss.Snippet.ID
		}
		refs = append(refs, fmt.Sprintf("# Reference: %s\n%s", title, content))
	}
	if len(refs) > 0 {
		b.WriteString("\n\nRelevant IaC reference snippets:\n")
		b.WriteString(strings.Join(refs, "\n\n"))
	}

	if len(p.Diagnostics) > 0 {
		b.WriteString("\n\nYour previous configuration:\n```hcl\n")
		b.WriteString(strings.TrimSpace(p.PreviousCode))
		b.WriteString("\n```\n\nIt failed validation with:\n")
		for _, d := range p.Diagnostics {
			b.WriteString("- ")
			b.WriteString(d.String())
			b.WriteString("\n")
		}
		b.WriteString("Fix these problems and output the complete corrected configuration.")
	}

	return b.String()
}

// ExtractCode takes the raw model completion and returns the candidate
// configuration: the body of the first fenced code block when one is
// present, otherwise the whole completion, trimmed either way.
func ExtractCode(raw string) string {
	raw = strings.TrimSpace(raw)

	if start := strings.Index(raw, "```"); start >= 0 {
		rest := raw[start+3:]
		// drop an optional language tag or filename on the fence line
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		raw = rest
	}

	// some models follow the older tag convention
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "<iac_template>")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "</iac_template>")

	return strings.TrimSpace(raw)
}
