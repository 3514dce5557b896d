package selector

import (
	"strings"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// Recommend picks the selector class to trust for future runs. Rules, first
// match wins:
//
//  1. XPath found the value, the element has recorded text and the
//     expression uses a text predicate.
//  2. Custom CSS found the value and the element has an id, name or type.
//  3. Classic CSS found the value.
//  4. Dynamic CSS found the value.
//
// Failing all of them, classic CSS is still chosen when it matched anything.
// Diagnostics are looked up by class; a missing class counts as absent.
func Recommend(diagnostics []schemas.DiagnosticResult, attrs schemas.ElementAttributes) schemas.SelectorClass {
	byClass := make(map[schemas.SelectorClass]*schemas.DiagnosticResult, len(diagnostics))
	for i := range diagnostics {
		byClass[diagnostics[i].SelectorClass] = &diagnostics[i]
	}
	classic := byClass[schemas.ClassicCSS]
	dynamic := byClass[schemas.DynamicCSS]
	custom := byClass[schemas.CustomCSS]
	xpath := byClass[schemas.XPath]

	switch {
	case xpath.HasValueMatch() && attrs.Text.IsSet() && hasTextPredicate(xpath.Selector):
		return schemas.XPath
	case custom.HasValueMatch() && attrs.HasIdentity():
		return schemas.CustomCSS
	case classic.HasValueMatch():
		return schemas.ClassicCSS
	case dynamic.HasValueMatch():
		return schemas.DynamicCSS
	case classic.HasRawMatch():
		return schemas.ClassicCSS
	}
	return schemas.NoSelectorClass
}

func hasTextPredicate(expr string) bool {
	return strings.Contains(expr, "contains") || strings.Contains(expr, "normalize-space")
}
