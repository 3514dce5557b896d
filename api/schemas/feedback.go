package schemas

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
)

// -- Outcome Codes --

// OutcomeCode classifies the result of evaluating one selector. The set is
// closed: every evaluation path terminates in exactly one of these codes.
type OutcomeCode string

const (
	NoSelectorFound                  OutcomeCode = "NO_SELECTOR_FOUND"
	OneSelectorFound                 OutcomeCode = "ONE_SELECTOR_FOUND"
	MultipleSelectorsFound           OutcomeCode = "MULTIPLE_SELECTORS_FOUND"
	NoSelectorFoundWithSpecificValue OutcomeCode = "NO_SELECTOR_FOUND_WITH_SPECIFIC_VALUE"
	SelectorFoundWithCorrectIndex    OutcomeCode = "SELECTOR_FOUND_WITH_CORRECT_INDEX"
	SelectorFoundWithIncorrectIndex  OutcomeCode = "SELECTOR_FOUND_WITH_INCORRECT_INDEX"
	MultipleWithValueCorrectIndex    OutcomeCode = "MULTIPLE_SELECTORS_FOUND_WITH_EXPECTED_VALUE_CORRECT_INDEX"
	MultipleWithValueIncorrectIndex  OutcomeCode = "MULTIPLE_SELECTORS_FOUND_WITH_EXPECTED_VALUE_INCORRECT_INDEX"
	NoTagProvided                    OutcomeCode = "NO_TAG_PROVIDED_BY_BE"
	NoValueProvided                  OutcomeCode = "NO_VALUE_PROVIDED_BY_BE"
	StepIndexOutOfRange              OutcomeCode = "STEP_INDEX_GREATER_THAN_NUMBER_OF_SELECTORS_FOUND"
	NoSelectorFoundWithNtagSelector  OutcomeCode = "NO_SELECTOR_FOUND_WITH_NTAGSELECTOR"
	SelectElementIncorrectValue      OutcomeCode = "SELECT_ELEMENT_INCORRECT_VALUE"
	ActionNotValidForAnalysis        OutcomeCode = "ACTION_NOT_VALID_FOR_ANALYSIS"
)

// OutcomeCodes is the complete taxonomy, in a stable order.
var OutcomeCodes = []OutcomeCode{
	NoSelectorFound,
	OneSelectorFound,
	MultipleSelectorsFound,
	NoSelectorFoundWithSpecificValue,
	SelectorFoundWithCorrectIndex,
	SelectorFoundWithIncorrectIndex,
	MultipleWithValueCorrectIndex,
	MultipleWithValueIncorrectIndex,
	NoTagProvided,
	NoValueProvided,
	StepIndexOutOfRange,
	NoSelectorFoundWithNtagSelector,
	SelectElementIncorrectValue,
	ActionNotValidForAnalysis,
}

// IsValid reports whether the code belongs to the taxonomy.
func (c OutcomeCode) IsValid() bool {
	for _, known := range OutcomeCodes {
		if c == known {
			return true
		}
	}
	return false
}

// -- Diagnostic Elements --

// ElementRole tells whether an element is the one originally expected or the
// one actually found carrying the expected value.
type ElementRole string

const (
	RoleOriginal ElementRole = "original"
	RoleFound    ElementRole = "found"
)

// ElementIndex is the position of a reported element. An ambiguous index
// lists every matching position instead of a single one; it serializes as
// the textual list (for example "[1, 3]").
type ElementIndex struct {
	Position   int
	Candidates []int
}

// At returns a single-position index.
func At(position int) ElementIndex {
	return ElementIndex{Position: position}
}

// AmbiguousAt returns an index listing several positions.
func AmbiguousAt(positions []int) ElementIndex {
	c := make([]int, len(positions))
	copy(c, positions)
	return ElementIndex{Position: -1, Candidates: c}
}

// IsAmbiguous reports whether the index lists several positions.
func (e ElementIndex) IsAmbiguous() bool {
	return e.Candidates != nil
}

func (e ElementIndex) String() string {
	if !e.IsAmbiguous() {
		return strconv.Itoa(e.Position)
	}
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON encodes a single index as a number and an ambiguous one as a string.
func (e ElementIndex) MarshalJSON() ([]byte, error) {
	if e.IsAmbiguous() {
		return json.Marshal(e.String())
	}
	return []byte(strconv.Itoa(e.Position)), nil
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (e *ElementIndex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("element index: %w", err)
		}
		*e = At(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("element index: %w", err)
	}
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	positions := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("element index %q: %w", s, err)
		}
		positions = append(positions, n)
	}
	*e = AmbiguousAt(positions)
	return nil
}

// Element is one reported element of a diagnostic.
type Element struct {
	Index    ElementIndex `json:"index"`
	Selector ElementRole  `json:"selector"`
	Value    string       `json:"value"`
}

// DiagnosticResult is the outcome of evaluating one selector class for a step.
// Elements holds at most two entries: the original and, when different, the found one.
type DiagnosticResult struct {
	SelectorClass   SelectorClass `json:"selectorClass"`
	Selector        string        `json:"selector"`
	RawMatchCount   int           `json:"rawMatchCount"`
	ValueMatchCount int           `json:"valueMatchCount"`
	OutcomeCode     OutcomeCode   `json:"outcomeCode"`
	Elements        []Element     `json:"elements"`
}

// HasValueMatch reports whether at least one element carried the expected value.
func (d *DiagnosticResult) HasValueMatch() bool {
	return d != nil && d.ValueMatchCount > 0
}

// HasRawMatch reports whether the selector matched anything at all.
func (d *DiagnosticResult) HasRawMatch() bool {
	return d != nil && d.RawMatchCount > 0
}
