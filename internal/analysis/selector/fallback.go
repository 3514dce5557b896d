package selector

import (
	"sort"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// AttributeFallback is an experimental second pass used when the value
// search produced no usable match. It locates the target through its
// recorded attributes:
//
//   - the first element whose id equals the recorded id wins outright;
//   - otherwise the first element whose name equals the recorded name;
//   - otherwise every element whose text equals the recorded text, plus
//     every element whose type equals the recorded type.
//
// It is only reachable when enabled with WithAttributeFallback.
func AttributeFallback(elements []dom.Element, attrs schemas.ElementAttributes, target Target) []Match {
	if m, ok := firstWithAttr(elements, "id", attrs.ID, target); ok {
		return []Match{m}
	}
	if m, ok := firstWithAttr(elements, "name", attrs.Name, target); ok {
		return []Match{m}
	}

	found := map[int]Match{}
	if text, ok := attrs.Text.Get(); ok {
		for i, el := range elements {
			if normalizeText(el.Text()) == normalizeText(text) {
				found[i] = Match{Index: i, Value: reportedValue(el, target)}
			}
		}
	}
	if typ, ok := attrs.Type.Get(); ok {
		for i, el := range elements {
			if v, present := el.Attr("type"); present && v == typ {
				found[i] = Match{Index: i, Value: reportedValue(el, target)}
			}
		}
	}

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	return matches
}

func firstWithAttr(elements []dom.Element, name string, want schemas.Optional, target Target) (Match, bool) {
	expected, ok := want.Get()
	if !ok {
		return Match{}, false
	}
	for i, el := range elements {
		if v, present := el.Attr(name); present && v == expected {
			return Match{Index: i, Value: reportedValue(el, target)}, true
		}
	}
	return Match{}, false
}
