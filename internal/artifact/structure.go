package artifact

import (
	"fmt"
	"strings"
)

// region is the byte span of a brace-delimited body: open is the offset of
// "{", close the offset of the matching "}".
type region struct {
	open   int
	close  int
	indent string // indentation of the line that introduces the body
}

// findClassBody locates the body of the container class. A class named
// className wins; otherwise the first class in the file is used.
func findClassBody(s *scanned, className string) (region, error) {
	first := -1
	for i := range s.tokens {
		if !s.is(i, tokIdent, "class") || s.is(i-1, tokPunct, ".") {
			continue
		}
		brace := classBrace(s, i)
		if brace < 0 {
			continue
		}
		if first < 0 {
			first = brace
		}
		if className != "" && s.is(i+1, tokIdent, className) {
			return bodyAt(s, brace, i), nil
		}
	}
	if first < 0 {
		return region{}, fmt.Errorf("no class declaration found")
	}
	return bodyAt(s, first, -1), nil
}

// classBrace returns the index of the "{" opening the class whose keyword is at
// token kw, or -1. The heritage clause may hold identifiers, member access and
// call arguments.
func classBrace(s *scanned, kw int) int {
	for j := kw + 1; j < len(s.tokens); j++ {
		t := s.tokens[j]
		switch {
		case t.kind == tokIdent:
		case t.text == ".":
		case t.text == "(" || t.text == "[":
			j = s.match[j]
		case t.text == "{":
			return j
		default:
			return -1
		}
	}
	return -1
}

func bodyAt(s *scanned, brace, kw int) region {
	anchor := brace
	if kw >= 0 {
		anchor = kw
	}
	return region{
		open:   s.tokens[brace].pos,
		close:  s.tokens[s.match[brace]].pos,
		indent: indentAt(s.src, s.tokens[anchor].pos),
	}
}

// findTestBody locates the callback body of the last it(...) / it.only(...)
// call. The body is the last top-level brace block among the call arguments.
func findTestBody(s *scanned) (region, error) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if !s.is(i, tokIdent, "it") || s.is(i-1, tokPunct, ".") {
			continue
		}
		paren := i + 1
		if s.is(paren, tokPunct, ".") && s.isIdent(paren+1) &&
			(s.tokens[paren+1].text == "only" || s.tokens[paren+1].text == "skip") {
			paren += 2
		}
		if !s.is(paren, tokPunct, "(") {
			continue
		}
		end := s.match[paren]
		body := -1
		for j := paren + 1; j < end; j++ {
			if s.tokens[j].kind != tokPunct || !isOpener(s.tokens[j].text) {
				continue
			}
			if s.tokens[j].text == "{" {
				body = j
			}
			j = s.match[j]
		}
		if body < 0 {
			return region{}, fmt.Errorf("test case at offset %d has no callback body", s.tokens[i].pos)
		}
		return bodyAt(s, body, i), nil
	}
	return region{}, fmt.Errorf("no test case found")
}

// accessor is a getter found in the container class.
type accessor struct {
	Name    string
	Locator string
}

// findAccessors lists the getters declared directly in the class body r.
func findAccessors(s *scanned, r region) []accessor {
	var out []accessor
	for i := 0; i < len(s.tokens); i++ {
		pos := s.tokens[i].pos
		if pos <= r.open {
			continue
		}
		if pos >= r.close {
			break
		}
		if s.is(i, tokIdent, "get") && s.isIdent(i+1) && s.is(i+2, tokPunct, "(") &&
			s.is(s.match[i+2]+1, tokPunct, "{") {
			open := s.match[i+2] + 1
			out = append(out, accessor{
				Name:    s.tokens[i+1].text,
				Locator: returnedExpr(s, open),
			})
			i = s.match[open]
			continue
		}
		// Member bodies and parameter lists are not searched.
		if s.tokens[i].kind == tokPunct && isOpener(s.tokens[i].text) {
			i = s.match[i]
		}
	}
	return out
}

// returnedExpr returns the expression of a `{ return <expr>; }` body, trimmed.
func returnedExpr(s *scanned, open int) string {
	start := s.tokens[open].pos + 1
	end := s.tokens[s.match[open]].pos
	body := strings.TrimSpace(string(s.src[start:end]))
	body = strings.TrimPrefix(body, "return")
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, ";")
	return strings.TrimSpace(body)
}

// insertBefore returns src with line inserted on its own line immediately
// before the closing brace of r. Bytes outside the insertion are unchanged.
func insertBefore(src []byte, r region, line string) ([]byte, int) {
	at := r.close
	ownLine := onlySpaceBefore(src, r.close)
	var b strings.Builder
	if ownLine {
		at = lineStart(src, r.close)
	} else {
		b.WriteString("\n")
	}
	b.WriteString(line)
	b.WriteString("\n")
	if !ownLine {
		// The closing brace shared a line with other code; keep it on a line of its own.
		b.WriteString(r.indent)
	}

	out := make([]byte, 0, len(src)+b.Len())
	out = append(out, src[:at]...)
	out = append(out, b.String()...)
	out = append(out, src[at:]...)
	return out, at
}
