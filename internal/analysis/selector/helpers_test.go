package selector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

const fixtureHTML = `
<html><body>
	<form id="login">
		<button class="btn" type="button">Cancel</button>
		<button class="btn" type="submit">Submit</button>
	</form>
	<nav>
		<a class="nav" href="/docs">Guide</a>
		<a class="nav" href="/docs">Docs</a>
		<a class="nav" href="/docs">Reference</a>
		<a class="nav" href="/blog">Blog</a>
	</nav>
	<div class="pickers">
		<select class="pick" name="first"><option value="opt1">One</option></select>
		<select class="pick" name="second">
			<option value="opt2">Two</option>
			<option value="opt3"> Three </option>
		</select>
	</div>
	<input class="field" name="email" value="a@b.c">
	<input class="field" name="email2" value="a@b.c">
	<input class="field" id="phone" name="phone" value="">
	<img class="logo" src="/a.png"><img class="logo" src="/b.png">
	<p class="note">It's here</p><p class="note">Other</p>
</body></html>`

func fixtureDoc(t testing.TB) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(fixtureHTML))
	require.NoError(t, err)
	return doc
}

func newTestEvaluator(opts ...Option) *Evaluator {
	return NewEvaluator(zap.NewNop(), opts...)
}

func candidate(selector string, index int) schemas.SelectorCandidate {
	return schemas.SelectorCandidate{Selector: selector, Index: &index}
}

func strategyOf(class schemas.SelectorClass) Strategy {
	s, _ := StrategyFor(class)
	return s
}

func mustQuery(t testing.TB, doc *dom.Document, selector string) []dom.Element {
	t.Helper()
	elements, err := doc.QueryCSS(selector)
	require.NoError(t, err)
	return elements
}
