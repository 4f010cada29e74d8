package codegen

import (
	"testing"

	"github.com/hpungsan/ghost/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Statements(t *testing.T) {
	tests := []struct {
		name string
		spec ActionSpec
		want string
	}{
		{
			name: "click visible force",
			spec: ActionSpec{Kind: Click, Wait: WaitVisible, Force: true},
			want: "page.submitBtn.should('be.visible').click({ force: true });",
		},
		{
			name: "plain click",
			spec: ActionSpec{Kind: Click},
			want: "page.submitBtn.click();",
		},
		{
			name: "click multiple only",
			spec: ActionSpec{Kind: Click, Multiple: true},
			want: "page.submitBtn.click({ multiple: true });",
		},
		{
			name: "type with both modifiers",
			spec: ActionSpec{Kind: Type, Wait: WaitEnabled, Force: true, Multiple: true, TypedValue: StringPtr("user@example.com")},
			want: "page.submitBtn.should('be.enabled').clear().type('user@example.com', { force: true, multiple: true });",
		},
		{
			name: "type escapes value",
			spec: ActionSpec{Kind: Type, TypedValue: StringPtr("O'Neil\nline")},
			want: `page.submitBtn.clear().type('O\'Neil\nline');`,
		},
		{
			name: "type empty value allowed",
			spec: ActionSpec{Kind: Type, TypedValue: StringPtr("")},
			want: "page.submitBtn.clear().type('');",
		},
		{
			name: "hover exists",
			spec: ActionSpec{Kind: Hover, Wait: WaitExists},
			want: "page.submitBtn.should('exist').trigger('mouseover');",
		},
		{
			name: "hover force",
			spec: ActionSpec{Kind: Hover, Force: true},
			want: "page.submitBtn.trigger('mouseover', { force: true });",
		},
		{
			name: "scroll ignores modifiers",
			spec: ActionSpec{Kind: ScrollIntoView, Force: true, Multiple: true},
			want: "page.submitBtn.scrollIntoView();",
		},
		{
			name: "assert visible drops wait and modifiers",
			spec: ActionSpec{Kind: AssertVisible, Wait: WaitEnabled, Force: true},
			want: "page.submitBtn.should('be.visible');",
		},
		{
			name: "wait only",
			spec: ActionSpec{Kind: WaitOnly, Wait: WaitVisible},
			want: "page.submitBtn.should('be.visible'); // Waiting for element to be ready",
		},
		{
			name: "wait only without condition",
			spec: ActionSpec{Kind: WaitOnly},
			want: "page.submitBtn; // Waiting for element to be ready",
		},
		{
			name: "wait then click fixed options",
			spec: ActionSpec{Kind: WaitThenClick, Wait: WaitVisible, Multiple: true},
			want: "page.submitBtn.should('be.visible').click({ force: true, waitForAnimations: true });",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Synthesize("submitBtn", tt.spec, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesize_CustomPageVar(t *testing.T) {
	got, err := Synthesize("title", ActionSpec{Kind: AssertVisible}, Options{PageVar: "po"})
	require.NoError(t, err)
	assert.Equal(t, "po.title.should('be.visible');", got)

	_, err = Synthesize("title", ActionSpec{Kind: Click}, Options{PageVar: "bad-var"})
	assert.True(t, errors.Is(err, errors.ErrInvalidSpec))
}

func TestSynthesize_InvalidSpec(t *testing.T) {
	cases := []struct {
		name     string
		accessor string
		spec     ActionSpec
	}{
		{"type without value", "field", ActionSpec{Kind: Type}},
		{"empty accessor", "", ActionSpec{Kind: Click}},
		{"reserved accessor", "class", ActionSpec{Kind: Click}},
		{"bad accessor", "login-btn", ActionSpec{Kind: Click}},
		{"unknown kind", "field", ActionSpec{Kind: ActionKind(42)}},
		{"unknown wait", "field", ActionSpec{Kind: Click, Wait: WaitCondition(9)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Synthesize(tc.accessor, tc.spec, Options{})
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, errors.ErrInvalidSpec), "got %v", err)
		})
	}
}

func TestAccessorDeclaration(t *testing.T) {
	got, err := AccessorDeclaration("element_1", "cy.get('#login')")
	require.NoError(t, err)
	assert.Equal(t, "get element_1() { return cy.get('#login'); }", got)

	_, err = AccessorDeclaration("1st", "cy.get('a')")
	assert.True(t, errors.Is(err, errors.ErrInvalidSpec))

	_, err = AccessorDeclaration("ok", "  ")
	assert.True(t, errors.Is(err, errors.ErrInvalidSpec))
}

func TestParseActionKind(t *testing.T) {
	for _, k := range ActionKinds {
		got, err := ParseActionKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseActionKind("  Wait-And-Click ")
	require.NoError(t, err)
	assert.Equal(t, WaitThenClick, got)

	_, err = ParseActionKind("drag")
	assert.Error(t, err)
}

func TestParseWaitCondition(t *testing.T) {
	for _, w := range WaitConditions {
		got, err := ParseWaitCondition(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}

	got, err := ParseWaitCondition("be.enabled")
	require.NoError(t, err)
	assert.Equal(t, WaitEnabled, got)

	got, err = ParseWaitCondition("")
	require.NoError(t, err)
	assert.Equal(t, WaitNone, got)

	_, err = ParseWaitCondition("be.hidden")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Wait & click", WaitThenClick.Label())
	assert.Equal(t, "", WaitNone.Chainer())
	assert.Equal(t, "exist", WaitExists.Chainer())
	assert.Equal(t, "action(42)", ActionKind(42).String())
}
