package ops

import (
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/element"
)

// CandidatesInput contains parameters for the Candidates operation.
type CandidatesInput struct {
	ID        string
	Text      string
	Tag       string
	ClassName string
	InputType string

	// TextMaxLen overrides cfg.TextMaxLen when positive.
	TextMaxLen int
}

// CandidatesOutput contains the result of the Candidates operation.
type CandidatesOutput struct {
	Element    element.RawElement         `json:"element"`
	Candidates []element.LocatorCandidate `json:"candidates"`
	Default    element.LocatorCandidate   `json:"default"`
}

// Candidates normalizes the element attributes and ranks its locators.
func Candidates(cfg *config.Config, input CandidatesInput) (*CandidatesOutput, error) {
	maxLen := input.TextMaxLen
	if maxLen <= 0 && cfg != nil {
		maxLen = cfg.TextMaxLen
	}

	e := element.NewRawElement(input.ID, input.Text, input.Tag, input.ClassName, input.InputType)
	candidates := element.Generate(e, element.Options{TextMaxLen: maxLen})
	def, _ := element.Default(candidates)

	return &CandidatesOutput{
		Element:    e,
		Candidates: candidates,
		Default:    def,
	}, nil
}
