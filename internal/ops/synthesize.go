package ops

import (
	"strings"

	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/errors"
)

// SynthesizeInput contains parameters for the Synthesize operation.
type SynthesizeInput struct {
	Accessor string // required
	Locator  string // optional; when set the declaration is returned too
	Action   string // required: click, type, hover, scroll, assert-visible, wait, wait-click
	Wait     string // optional: none (default), visible, exists, enabled
	Force    bool
	Multiple bool
	Value    *string // required for type
	PageVar  string  // default: cfg.PageVar
}

// SynthesizeOutput contains the result of the Synthesize operation.
type SynthesizeOutput struct {
	Accessor    string `json:"accessor"`
	Declaration string `json:"declaration,omitempty"`
	Statement   string `json:"statement"`
}

// ParseActionSpec builds an ActionSpec from the string names used by the CLI
// and the MCP tools. Unknown names are INVALID_SPEC.
func ParseActionSpec(action, wait string, force, multiple bool, value *string) (codegen.ActionSpec, error) {
	kind, err := codegen.ParseActionKind(action)
	if err != nil {
		return codegen.ActionSpec{}, errors.NewInvalidSpec(err.Error())
	}
	w, err := codegen.ParseWaitCondition(wait)
	if err != nil {
		return codegen.ActionSpec{}, errors.NewInvalidSpec(err.Error())
	}
	return codegen.ActionSpec{
		Kind:       kind,
		Wait:       w,
		Force:      force,
		Multiple:   multiple,
		TypedValue: value,
	}, nil
}

// Synthesize generates the statement (and optionally the accessor
// declaration) for one action without touching any file.
func Synthesize(cfg *config.Config, input SynthesizeInput) (*SynthesizeOutput, error) {
	accessor := strings.TrimSpace(input.Accessor)
	if accessor == "" {
		return nil, errors.NewInvalidRequest("accessor is required")
	}
	spec, err := ParseActionSpec(input.Action, input.Wait, input.Force, input.Multiple, input.Value)
	if err != nil {
		return nil, err
	}

	pageVar := input.PageVar
	if pageVar == "" && cfg != nil {
		pageVar = cfg.PageVar
	}
	stmt, err := codegen.Synthesize(accessor, spec, codegen.Options{PageVar: pageVar})
	if err != nil {
		return nil, err
	}

	out := &SynthesizeOutput{Accessor: accessor, Statement: stmt}
	if strings.TrimSpace(input.Locator) != "" {
		decl, err := codegen.AccessorDeclaration(accessor, input.Locator)
		if err != nil {
			return nil, err
		}
		out.Declaration = decl
	}
	return out, nil
}
