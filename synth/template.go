package synth

import (
	"errors"
	"strings"
)

// Placeholder marks where a template receives the question.
const Placeholder = "{question}"

// DefaultPrompt is the instruction text sent with every question unless a
// different template is configured.
const DefaultPrompt = `
Convert the following word problem into ONE valid mathematical expression.

RULES:
- Output ONLY the expression
- No explanation
- No text
- No code
- Use + - * / and parentheses

Question: {question}
Expression:
`

// ErrNoPlaceholder indicates a template that never mentions the question.
var ErrNoPlaceholder = errors.New("template has no " + Placeholder + " placeholder")

// Template is an immutable prompt template.
type Template struct {
	text string
}

// DefaultTemplate returns the template for DefaultPrompt.
func DefaultTemplate() Template {
	return Template{text: DefaultPrompt}
}

// NewTemplate creates a template from text, which must contain Placeholder
// at least once.
func NewTemplate(text string) (Template, error) {
	if !strings.Contains(text, Placeholder) {
		return Template{}, ErrNoPlaceholder
	}
	return Template{text: text}, nil
}

// Render substitutes question for every placeholder. The question is
// inserted verbatim. The zero Template renders as DefaultPrompt.
func (t Template) Render(question string) string {
	text := t.text
	if text == "" {
		text = DefaultPrompt
	}
	return strings.ReplaceAll(text, Placeholder, question)
}

// String returns the template text.
func (t Template) String() string {
	if t.text == "" {
		return DefaultPrompt
	}
	return t.text
}
