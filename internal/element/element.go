// Package element turns a captured DOM element into ranked locator candidates.
package element

import (
	"strings"
	"unicode/utf8"
)

// MaxTextRunes is the longest element text kept from a capture.
const MaxTextRunes = 100

// DefaultTextMaxLen is the text length cap for text-containment locators.
const DefaultTextMaxLen = 50

// RawElement is the attribute snapshot of one clicked element.
type RawElement struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Tag       string `json:"tag"`
	ClassName string `json:"class"`
	InputType string `json:"type"`
}

// NewRawElement normalizes raw attribute values the way the capture script does:
// text is trimmed, cut to MaxTextRunes and trimmed again; tag is lowercased.
func NewRawElement(id, text, tag, className, inputType string) RawElement {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxTextRunes {
		text = strings.TrimSpace(string([]rune(text)[:MaxTextRunes]))
	}
	return RawElement{
		ID:        strings.TrimSpace(id),
		Text:      text,
		Tag:       strings.ToLower(strings.TrimSpace(tag)),
		ClassName: className,
		InputType: strings.ToLower(strings.TrimSpace(inputType)),
	}
}

// Describe returns a one-line summary for prompts and logs.
func (e RawElement) Describe() string {
	var b strings.Builder
	b.WriteString("Tag: ")
	b.WriteString(e.Tag)
	if e.ID != "" {
		b.WriteString(" | ID: ")
		b.WriteString(e.ID)
	}
	b.WriteString(" | Text: ")
	b.WriteString(e.Text)
	if e.InputType != "" {
		b.WriteString(" | Type: ")
		b.WriteString(e.InputType)
	}
	return b.String()
}
