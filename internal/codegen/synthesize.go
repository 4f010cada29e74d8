package codegen

import (
	"fmt"
	"strings"

	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/jslit"
)

// DefaultPageVar is the page-object receiver used in generated statements.
const DefaultPageVar = "page"

// Options tunes statement synthesis.
type Options struct {
	// PageVar is the receiver the statement is written against. Empty means DefaultPageVar.
	PageVar string
}

// EscapeJS escapes s for a single-quoted JavaScript string literal.
func EscapeJS(s string) string {
	return jslit.Escape(s)
}

// ValidateIdentifier returns INVALID_SPEC unless name is a usable accessor name.
func ValidateIdentifier(name string) error {
	if name == "" {
		return errors.NewInvalidSpec("accessor name is required")
	}
	if jslit.IsReserved(name) {
		return errors.NewInvalidSpec(fmt.Sprintf("accessor name %q is a reserved word", name))
	}
	if !jslit.IsIdentifier(name) {
		return errors.NewInvalidSpec(fmt.Sprintf("accessor name %q is not a valid identifier", name))
	}
	return nil
}

// AccessorDeclaration returns the getter declaration exposing locator as name.
func AccessorDeclaration(name, locator string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", err
	}
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", errors.NewInvalidSpec("locator is required")
	}
	return "get " + name + "() { return " + locator + "; }", nil
}

// Synthesize returns the single test statement performing spec against accessor.
func Synthesize(accessor string, spec ActionSpec, opts Options) (string, error) {
	if err := ValidateIdentifier(accessor); err != nil {
		return "", err
	}
	if !spec.Kind.Valid() {
		return "", errors.NewInvalidSpec(fmt.Sprintf("unknown action kind %d", int(spec.Kind)))
	}
	if !spec.Wait.Valid() {
		return "", errors.NewInvalidSpec(fmt.Sprintf("unknown wait condition %d", int(spec.Wait)))
	}
	if spec.Kind == Type && spec.TypedValue == nil {
		return "", errors.NewInvalidSpec("type action requires a value")
	}

	pageVar := opts.PageVar
	if pageVar == "" {
		pageVar = DefaultPageVar
	}
	if !jslit.IsIdentifier(pageVar) {
		return "", errors.NewInvalidSpec(fmt.Sprintf("page variable %q is not a valid identifier", pageVar))
	}

	target := pageVar + "." + accessor

	// Assertion statements carry their own visibility clause.
	if spec.Kind == AssertVisible {
		return target + ".should('be.visible');", nil
	}

	var b strings.Builder
	b.WriteString(target)
	if chainer := spec.Wait.Chainer(); chainer != "" {
		b.WriteString(".should('")
		b.WriteString(chainer)
		b.WriteString("')")
	}

	opt := optionsLiteral(spec.Force, spec.Multiple)

	switch spec.Kind {
	case Type:
		b.WriteString(".clear().type(")
		b.WriteString(jslit.Quote(*spec.TypedValue))
		if opt != "" {
			b.WriteString(", ")
			b.WriteString(opt)
		}
		b.WriteString(");")
	case Click:
		b.WriteString(".click(")
		b.WriteString(opt)
		b.WriteString(");")
	case Hover:
		b.WriteString(".trigger('mouseover'")
		if opt != "" {
			b.WriteString(", ")
			b.WriteString(opt)
		}
		b.WriteString(");")
	case WaitOnly:
		b.WriteString("; // Waiting for element to be ready")
	case WaitThenClick:
		b.WriteString(".click({ force: true, waitForAnimations: true });")
	default:
		b.WriteString(".scrollIntoView();")
	}
	return b.String(), nil
}

func optionsLiteral(force, multiple bool) string {
	switch {
	case force && multiple:
		return "{ force: true, multiple: true }"
	case force:
		return "{ force: true }"
	case multiple:
		return "{ multiple: true }"
	}
	return ""
}
