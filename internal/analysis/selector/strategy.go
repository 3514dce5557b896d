package selector

import (
	"strings"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// Strategy is the per-class part of selector evaluation: which query
// language the class is written in and how its recorded selector must be
// prepared before querying.
type Strategy interface {
	Class() schemas.SelectorClass
	Language() dom.Language
	// Prepare returns the selector to query. A non-empty outcome code aborts
	// evaluation with that code.
	Prepare(selector string, target Target) (string, schemas.OutcomeCode)
}

// cssStrategy covers the three CSS classes; they only differ in how the
// recorder built the selector, not in how it is evaluated.
type cssStrategy struct {
	class schemas.SelectorClass
}

func (s cssStrategy) Class() schemas.SelectorClass { return s.class }
func (s cssStrategy) Language() dom.Language       { return dom.CSS }

func (s cssStrategy) Prepare(selector string, _ Target) (string, schemas.OutcomeCode) {
	return selector, ""
}

// xpathStrategy lower-cases the recorded tag inside the expression. The
// recorder captures tag names upper-cased while XPath matching over HTML
// is case-sensitive.
type xpathStrategy struct{}

func (xpathStrategy) Class() schemas.SelectorClass { return schemas.XPath }
func (xpathStrategy) Language() dom.Language       { return dom.XPath }

func (xpathStrategy) Prepare(selector string, target Target) (string, schemas.OutcomeCode) {
	if strings.TrimSpace(target.Tag) == "" {
		return selector, schemas.NoTagProvided
	}
	return rewriteTagCase(selector, target.Tag), ""
}

var strategies = map[schemas.SelectorClass]Strategy{
	schemas.ClassicCSS: cssStrategy{class: schemas.ClassicCSS},
	schemas.DynamicCSS: cssStrategy{class: schemas.DynamicCSS},
	schemas.CustomCSS:  cssStrategy{class: schemas.CustomCSS},
	schemas.XPath:      xpathStrategy{},
}

// StrategyFor returns the strategy of a class, and false for an invalid class.
func StrategyFor(class schemas.SelectorClass) (Strategy, bool) {
	s, ok := strategies[class]
	return s, ok
}

// rewriteTagCase replaces every name token equal to the upper-cased tag with
// the lower-cased tag. Quoted literals and attribute names (@NAME) are left
// untouched.
func rewriteTagCase(expr, tag string) string {
	upper, lower := strings.ToUpper(tag), strings.ToLower(tag)
	if upper == lower {
		return expr
	}

	var b strings.Builder
	b.Grow(len(expr))
	var quote byte
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
			i++
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
			i++
		case isNameByte(c):
			j := i
			for j < len(expr) && isNameByte(expr[j]) {
				j++
			}
			token := expr[i:j]
			if token == upper && (i == 0 || expr[i-1] != '@') {
				b.WriteString(lower)
			} else {
				b.WriteString(token)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
