package selector

import (
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// Evaluator re-evaluates recorded selectors against a DOM snapshot. It holds
// no per-run state and can be shared between goroutines.
type Evaluator struct {
	logger            *zap.Logger
	attributeFallback bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithAttributeFallback enables the experimental AttributeFallback pass.
func WithAttributeFallback(enabled bool) Option {
	return func(e *Evaluator) { e.attributeFallback = enabled }
}

// NewEvaluator creates an evaluator.
func NewEvaluator(logger *zap.Logger, opts ...Option) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{logger: logger.Named("selector")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate diagnoses one selector candidate with the given class strategy.
func (e *Evaluator) Evaluate(doc *dom.Document, strategy Strategy, candidate schemas.SelectorCandidate, target Target) schemas.DiagnosticResult {
	result, elements, done := e.query(doc, strategy, candidate, target)
	if done {
		return result
	}
	if len(elements) == 0 {
		result.OutcomeCode = schemas.NoSelectorFoundWithNtagSelector
		return result
	}
	return e.diagnose(result, elements, target)
}

// query runs the common prelude of every evaluation path. done is true when
// the result is already final.
func (e *Evaluator) query(doc *dom.Document, strategy Strategy, candidate schemas.SelectorCandidate, target Target) (schemas.DiagnosticResult, []dom.Element, bool) {
	result := schemas.DiagnosticResult{
		SelectorClass: strategy.Class(),
		Selector:      candidate.Selector,
		Elements:      []schemas.Element{},
	}

	if target.Action == schemas.ActionMouseOver {
		result.OutcomeCode = schemas.ActionNotValidForAnalysis
		return result, nil, true
	}
	if candidate.IsEmpty() {
		result.OutcomeCode = schemas.NoSelectorFound
		return result, nil, true
	}

	selector, code := strategy.Prepare(candidate.Selector, target)
	result.Selector = selector
	if code != "" {
		result.OutcomeCode = code
		return result, nil, true
	}
	if doc == nil {
		return result, nil, false
	}

	elements, err := doc.Query(strategy.Language(), selector)
	if err != nil {
		// An unparsable selector simply matches nothing.
		e.logger.Debug("Selector query failed",
			zap.String("class", strategy.Class().String()),
			zap.String("selector", selector),
			zap.Error(err),
		)
		return result, nil, false
	}
	result.RawMatchCount = len(elements)
	return result, elements, false
}

// diagnose classifies one or more raw matches.
func (e *Evaluator) diagnose(result schemas.DiagnosticResult, elements []dom.Element, target Target) schemas.DiagnosticResult {
	if len(elements) == 1 {
		return e.single(result, elements[0], target)
	}

	resolution := Resolve(elements, target)
	if resolution.Code != "" {
		result.OutcomeCode = resolution.Code
		result.ValueMatchCount = len(resolution.Matches)
		result.Elements = resolution.Elements
		return result
	}

	matches := resolution.Matches
	if len(matches) == 0 && e.attributeFallback {
		matches = AttributeFallback(elements, target.Attributes, target)
		e.logger.Debug("Attribute fallback applied", zap.Int("matches", len(matches)))
	}
	for _, m := range matches {
		e.logger.Debug("Value match",
			zap.String("class", result.SelectorClass.String()),
			zap.Int("index", m.Index),
			zap.String("path", elements[m.Index].Path()),
		)
	}

	result.ValueMatchCount = len(matches)
	result.OutcomeCode, result.Elements = Classify(Classification{
		Matches:       matches,
		ExpectedIndex: target.ExpectedIndex,
		Bound:         len(elements),
		ExpectedValue: target.ExpectedValue,
		OriginalValue: valueAt(elements, target),
	})
	return result
}

// single handles a selector matching exactly one element. The element is
// taken as the target; when the step expected a later position, the
// position is reported as wrong.
func (e *Evaluator) single(result schemas.DiagnosticResult, el dom.Element, target Target) schemas.DiagnosticResult {
	value := reportedValue(el, target)
	if _, present := extract(el, target.SearchType); !present || carriesValue(el, target) {
		result.ValueMatchCount = 1
	}

	if target.ExpectedIndex > 0 {
		result.OutcomeCode = schemas.SelectorFoundWithIncorrectIndex
		result.Elements = []schemas.Element{
			{Index: schemas.At(target.ExpectedIndex), Selector: schemas.RoleOriginal, Value: target.ExpectedValue},
			{Index: schemas.At(0), Selector: schemas.RoleFound, Value: value},
		}
		return result
	}

	result.OutcomeCode = schemas.OneSelectorFound
	result.Elements = []schemas.Element{
		{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: value},
	}
	return result
}
