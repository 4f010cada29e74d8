package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idents(s *scanned) []string {
	var out []string
	for _, t := range s.tokens {
		if t.kind == tokIdent {
			out = append(out, t.text)
		}
	}
	return out
}

func TestScan_SkipsLiteralsAndComments(t *testing.T) {
	src := "a('}' + \"{\" + `x ${ b({}) } }`) // }\n/* { */ c[1.5e3]"

	s, err := scan([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, idents(s))
	// a ( + + ) c [ ]
	var punct []string
	for _, tok := range s.tokens {
		if tok.kind == tokPunct {
			punct = append(punct, tok.text)
		}
	}
	assert.Equal(t, []string{"(", "+", "+", ")", "[", "]"}, punct)
}

func TestScan_PairsBrackets(t *testing.T) {
	s, err := scan([]byte("f({ a: [1, 2] })"))
	require.NoError(t, err)

	// f ( { a : [ , ] } )
	require.Len(t, s.tokens, 10)
	assert.Equal(t, 9, s.match[1])
	assert.Equal(t, 8, s.match[2])
	assert.Equal(t, 7, s.match[5])
	assert.Equal(t, 1, s.match[9])
	assert.Equal(t, -1, s.match[0])
}

func TestScan_Errors(t *testing.T) {
	cases := map[string]string{
		"unclosed brace":       "class A {",
		"stray closer":         "a }",
		"mismatched":           "f(]",
		"unterminated string":  "x = 'abc",
		"newline in string":    "x = 'ab\ncd'",
		"unterminated comment": "/* forever",
		"unterminated tmpl":    "`abc ${ x }",
		"unterminated subst":   "`abc ${ x `",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := scan([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestScan_EscapedQuotes(t *testing.T) {
	s, err := scan([]byte(`cy.contains('Don\'t {')`))
	require.NoError(t, err)
	assert.Equal(t, []string{"cy", "contains"}, idents(s))
}

func TestFindClassBody_PrefersNamedClass(t *testing.T) {
	src := "class Helper {\n  x() {}\n}\nexport class PageObjects extends Base {\n}\n"
	s, err := scan([]byte(src))
	require.NoError(t, err)

	r, err := findClassBody(s, "PageObjects")
	require.NoError(t, err)
	assert.Equal(t, "{\n}", src[r.open:r.close+1])

	r, err = findClassBody(s, "Missing")
	require.NoError(t, err)
	assert.Equal(t, len("class Helper "), r.open)
}

func TestFindClassBody_NoClass(t *testing.T) {
	s, err := scan([]byte("const x = { class: 1 }; y.class = 2;"))
	require.NoError(t, err)
	_, err = findClassBody(s, "PageObjects")
	assert.Error(t, err)
}

func TestFindTestBody_LastTestCase(t *testing.T) {
	src := `describe('s', () => {
  it('first', () => {
    cy.visit('/');
  });
  it.only('second', function () {
    cy.log('it(');
  });
});
`
	s, err := scan([]byte(src))
	require.NoError(t, err)

	r, err := findTestBody(s)
	require.NoError(t, err)
	assert.Contains(t, src[r.open:r.close], "cy.log")
	assert.Equal(t, "  ", r.indent)
}

func TestFindTestBody_IgnoresMemberIt(t *testing.T) {
	src := "it('a', () => {\n});\nfoo.it('b', () => {});\n"
	s, err := scan([]byte(src))
	require.NoError(t, err)

	r, err := findTestBody(s)
	require.NoError(t, err)
	assert.Equal(t, len("it('a', () => "), r.open)
}

func TestFindTestBody_Missing(t *testing.T) {
	for _, src := range []string{"describe('x', () => {});", "it('no body');"} {
		s, err := scan([]byte(src))
		require.NoError(t, err)
		_, err = findTestBody(s)
		assert.Error(t, err, src)
	}
}

func TestFindAccessors(t *testing.T) {
	src := `export class PageObjects {
  get element_1() { return cy.get('#a'); }
  get element_2() {
    return cy.contains('x { y');
  }
  helper() { const o = { get inner() { return 1; } }; return o; }
}
`
	s, err := scan([]byte(src))
	require.NoError(t, err)
	r, err := findClassBody(s, "PageObjects")
	require.NoError(t, err)

	got := findAccessors(s, r)
	require.Equal(t, []accessor{
		{Name: "element_1", Locator: "cy.get('#a')"},
		{Name: "element_2", Locator: "cy.contains('x { y')"},
	}, got)
}

func TestInsertBefore_OwnLineAndInline(t *testing.T) {
	src := []byte("export class A {\n}\n")
	s, err := scan(src)
	require.NoError(t, err)
	r, err := findClassBody(s, "A")
	require.NoError(t, err)
	out, _ := insertBefore(src, r, "  get x() { return 1; }")
	assert.Equal(t, "export class A {\n  get x() { return 1; }\n}\n", string(out))

	src = []byte("export class A {}")
	s, err = scan(src)
	require.NoError(t, err)
	r, err = findClassBody(s, "A")
	require.NoError(t, err)
	out, _ = insertBefore(src, r, "  get x() { return 1; }")
	assert.Equal(t, "export class A {\n  get x() { return 1; }\n}", string(out))
}
