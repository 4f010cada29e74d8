package artifact

import (
	"fmt"

	"github.com/hpungsan/ghost/internal/jslit"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokPunct
)

// token is an identifier or a single punctuation byte. String, template,
// comment and number content never produces tokens.
type token struct {
	kind tokenKind
	text string
	pos  int // byte offset of the first byte
}

// scanned is a token stream with bracket pairs resolved.
type scanned struct {
	src    []byte
	tokens []token
	// match[i] is the index of the bracket paired with tokens[i], or -1.
	match []int
}

var closers = map[string]string{")": "(", "}": "{", "]": "["}

func isOpener(s string) bool { return s == "(" || s == "{" || s == "[" }

// scan tokenizes src and pairs its brackets. It fails on unterminated
// strings, comments or template literals and on unbalanced brackets.
func scan(src []byte) (*scanned, error) {
	s := &scanned{src: src}
	if err := s.lex(); err != nil {
		return nil, err
	}
	if err := s.pair(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *scanned) lex() error {
	src := s.src
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLineComment(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end, err := skipBlockComment(src, i)
			if err != nil {
				return err
			}
			i = end
		case c == '\'' || c == '"':
			end, err := skipQuoted(src, i)
			if err != nil {
				return err
			}
			i = end
		case c == '`':
			end, err := skipTemplate(src, i)
			if err != nil {
				return err
			}
			i = end
		case c >= '0' && c <= '9':
			i = skipNumber(src, i)
		case jslit.IsIdentStart(c) || c >= 0x80:
			start := i
			for i < len(src) && (jslit.IsIdentPart(src[i]) || src[i] >= 0x80) {
				i++
			}
			s.tokens = append(s.tokens, token{kind: tokIdent, text: string(src[start:i]), pos: start})
		default:
			s.tokens = append(s.tokens, token{kind: tokPunct, text: string(c), pos: i})
			i++
		}
	}
	return nil
}

func (s *scanned) pair() error {
	s.match = make([]int, len(s.tokens))
	var stack []int
	for i, t := range s.tokens {
		s.match[i] = -1
		if t.kind != tokPunct {
			continue
		}
		if isOpener(t.text) {
			stack = append(stack, i)
			continue
		}
		open, ok := closers[t.text]
		if !ok {
			continue
		}
		if len(stack) == 0 {
			return fmt.Errorf("unexpected %q at offset %d", t.text, t.pos)
		}
		top := stack[len(stack)-1]
		if s.tokens[top].text != open {
			return fmt.Errorf("%q at offset %d does not close %q at offset %d",
				t.text, t.pos, s.tokens[top].text, s.tokens[top].pos)
		}
		stack = stack[:len(stack)-1]
		s.match[top] = i
		s.match[i] = top
	}
	if len(stack) > 0 {
		t := s.tokens[stack[len(stack)-1]]
		return fmt.Errorf("unclosed %q at offset %d", t.text, t.pos)
	}
	return nil
}

func (s *scanned) is(i int, kind tokenKind, text string) bool {
	return i >= 0 && i < len(s.tokens) && s.tokens[i].kind == kind && s.tokens[i].text == text
}

func (s *scanned) isIdent(i int) bool {
	return i >= 0 && i < len(s.tokens) && s.tokens[i].kind == tokIdent
}

func skipLineComment(src []byte, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(src []byte, i int) (int, error) {
	start := i
	i += 2
	for i+1 < len(src) {
		if src[i] == '*' && src[i+1] == '/' {
			return i + 2, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated comment at offset %d", start)
}

func skipQuoted(src []byte, i int) (int, error) {
	start := i
	quote := src[i]
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1, nil
		case '\n':
			return 0, fmt.Errorf("unterminated string at offset %d", start)
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string at offset %d", start)
}

// skipTemplate skips a template literal, including ${...} substitutions that
// may themselves contain strings, comments and nested templates.
func skipTemplate(src []byte, i int) (int, error) {
	start := i
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			return i + 1, nil
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			end, err := skipSubstitution(src, i+2)
			if err != nil {
				return 0, err
			}
			i = end
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated template literal at offset %d", start)
}

// skipSubstitution skips to just past the brace closing a ${ opened before i.
func skipSubstitution(src []byte, i int) (int, error) {
	start := i
	depth := 0
	for i < len(src) {
		c := src[i]
		var err error
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLineComment(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i, err = skipBlockComment(src, i)
		case c == '\'' || c == '"':
			i, err = skipQuoted(src, i)
		case c == '`':
			i, err = skipTemplate(src, i)
		case c == '{':
			depth++
			i++
		case c == '}':
			if depth == 0 {
				return i + 1, nil
			}
			depth--
			i++
		default:
			i++
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("unterminated template substitution at offset %d", start)
}

func skipNumber(src []byte, i int) int {
	for i < len(src) && (jslit.IsIdentPart(src[i]) || src[i] == '.') {
		i++
	}
	return i
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// indentAt returns the leading whitespace of the line containing pos.
func indentAt(src []byte, pos int) string {
	start := lineStart(src, pos)
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// onlySpaceBefore reports whether the line holding pos has nothing but
// indentation ahead of it.
func onlySpaceBefore(src []byte, pos int) bool {
	for i := lineStart(src, pos); i < pos; i++ {
		if src[i] != ' ' && src[i] != '\t' {
			return false
		}
	}
	return true
}
