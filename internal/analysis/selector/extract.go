package selector

import (
	"strings"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// Target is what a step expected to find behind its selectors.
type Target struct {
	SearchType    schemas.SearchType
	ExpectedValue string
	ExpectedText  string
	ExpectedIndex int
	Tag           string
	Action        string
	Attributes    schemas.ElementAttributes
}

// TargetFor builds the target for one selector candidate of a step.
func TargetFor(step *schemas.StepRecord, candidate schemas.SelectorCandidate) Target {
	return Target{
		SearchType:    step.SearchInfo.Type,
		ExpectedValue: step.SearchInfo.Value,
		ExpectedText:  step.SearchInfo.Text,
		ExpectedIndex: candidate.ExpectedIndex(),
		Tag:           step.Tag,
		Action:        step.Action,
		Attributes:    step.Attributes,
	}
}

// Match is an element that carries the expected value.
type Match struct {
	Index int
	Value string
}

// extract returns the property compared for searchType and whether the
// element carries it at all.
func extract(el dom.Element, searchType schemas.SearchType) (string, bool) {
	switch searchType {
	case schemas.SearchByValue:
		return el.Attr("value")
	case schemas.SearchByHref:
		return el.Attr("href")
	case schemas.SearchByImgSrc:
		return el.Attr("src")
	case schemas.SearchByText:
		return strings.TrimSpace(el.Text()), true
	}
	return "", false
}

// reportedValue is the value shown for an element in a diagnostic. Elements
// lacking the searched property report the expected value instead.
func reportedValue(el dom.Element, target Target) string {
	if v, ok := extract(el, target.SearchType); ok {
		return v
	}
	return target.ExpectedValue
}

// valueAt is the best-effort value at the expected index.
func valueAt(elements []dom.Element, target Target) string {
	if target.ExpectedIndex >= 0 && target.ExpectedIndex < len(elements) {
		return reportedValue(elements[target.ExpectedIndex], target)
	}
	return target.ExpectedValue
}

// normalizeText strips apostrophes and surrounding whitespace.
func normalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "'", ""))
}

// equalForType compares an extracted property with the expected value.
// Text is compared case-sensitively after normalization, everything else
// exactly.
func equalForType(searchType schemas.SearchType, actual, expected string) bool {
	if searchType == schemas.SearchByText {
		return normalizeText(actual) == strings.TrimSpace(expected)
	}
	return actual == expected
}

// carriesValue reports whether the element's searched property equals the expectation.
func carriesValue(el dom.Element, target Target) bool {
	v, ok := extract(el, target.SearchType)
	return ok && equalForType(target.SearchType, v, target.ExpectedValue)
}

func indexes(matches []Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}
