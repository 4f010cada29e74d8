// Package jslit holds the JavaScript lexical helpers shared by the locator and
// statement generators: single-quoted literal escaping and identifier checks.
package jslit

import (
	"strings"
	"unicode"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// Escape escapes s for embedding inside a single-quoted JavaScript string literal.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Quote returns s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	return "'" + Escape(s) + "'"
}

// reserved lists ECMAScript reserved words plus the strict-mode and literal names
// that cannot be used as a getter name without quoting.
var reserved = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true, "interface": true,
	"let": true, "new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true, "super": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true,
}

// IsReserved reports whether name is a JavaScript reserved word.
func IsReserved(name string) bool {
	return reserved[name]
}

// IsIdentifier reports whether name is a syntactically valid JavaScript
// identifier that is not a reserved word.
func IsIdentifier(name string) bool {
	if name == "" || IsReserved(name) {
		return false
	}
	for i, r := range name {
		if r == '_' || r == '$' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsIdentStart reports whether b can begin an ASCII identifier.
func IsIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsIdentPart reports whether b can continue an ASCII identifier.
func IsIdentPart(b byte) bool {
	return IsIdentStart(b) || (b >= '0' && b <= '9')
}
