package selector

import (
	"strings"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// Resolution is the result of narrowing an over-matching selector.
type Resolution struct {
	Matches []Match
	// Code, when set, is final and bypasses Classify; Elements then holds
	// the elements to report.
	Code     schemas.OutcomeCode
	Elements []schemas.Element
}

// Resolve narrows several raw matches down to those carrying the expected
// value, using the comparison rules of the target's search type.
func Resolve(elements []dom.Element, target Target) Resolution {
	switch target.SearchType {
	case schemas.SearchByText:
		if strings.TrimSpace(target.ExpectedValue) == "" {
			return Resolution{Code: schemas.NoValueProvided, Elements: []schemas.Element{}}
		}
		return Resolution{Matches: filterByValue(elements, target)}

	case schemas.SearchByImgSrc:
		return Resolution{Matches: filterByValue(elements, target)}

	case schemas.SearchByHref:
		matches := filterByValue(elements, target)
		if len(matches) > 1 && target.ExpectedText != "" {
			if narrowed := filterByText(elements, matches, target.ExpectedText); len(narrowed) > 0 {
				matches = narrowed
			}
		}
		return Resolution{Matches: matches}

	case schemas.SearchByValue:
		matches := filterByValue(elements, target)
		if len(matches) == 0 && target.ExpectedText != "" && strings.EqualFold(target.Tag, "select") {
			if option, ok := resolveSelectOption(elements, target); ok {
				found := Match{Index: target.ExpectedIndex, Value: option.Value}
				return Resolution{
					Matches: []Match{found},
					Code:    schemas.SelectElementIncorrectValue,
					Elements: []schemas.Element{
						{Index: schemas.At(found.Index), Selector: schemas.RoleFound, Value: found.Value},
					},
				}
			}
		}
		return Resolution{Matches: matches}
	}

	return Resolution{Code: schemas.MultipleSelectorsFound, Elements: []schemas.Element{}}
}

func filterByValue(elements []dom.Element, target Target) []Match {
	var matches []Match
	for i, el := range elements {
		if carriesValue(el, target) {
			matches = append(matches, Match{Index: i, Value: reportedValue(el, target)})
		}
	}
	return matches
}

// filterByText keeps the matches whose text equals text exactly.
func filterByText(elements []dom.Element, matches []Match, text string) []Match {
	var narrowed []Match
	for _, m := range matches {
		if elements[m.Index].Text() == text {
			narrowed = append(narrowed, m)
		}
	}
	return narrowed
}

// resolveSelectOption looks for the option of the <select> at the expected
// index whose text equals the expected text.
func resolveSelectOption(elements []dom.Element, target Target) (dom.Option, bool) {
	if target.ExpectedIndex < 0 || target.ExpectedIndex >= len(elements) {
		return dom.Option{}, false
	}
	want := strings.TrimSpace(target.ExpectedText)
	for _, option := range elements[target.ExpectedIndex].Options() {
		if strings.TrimSpace(option.Text) == want {
			return option, true
		}
	}
	return dom.Option{}, false
}
