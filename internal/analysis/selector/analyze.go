package selector

import (
	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
)

// AnalyzeStep evaluates the four selector classes of a step in class order
// and recommends one of them.
func (e *Evaluator) AnalyzeStep(doc *dom.Document, step *schemas.StepRecord) ([]schemas.DiagnosticResult, schemas.SelectorClass) {
	feedback := make([]schemas.DiagnosticResult, 0, len(schemas.SelectorClasses))
	for _, class := range schemas.SelectorClasses {
		strategy, _ := StrategyFor(class)
		candidate := step.Candidate(class)
		feedback = append(feedback, e.Evaluate(doc, strategy, candidate, TargetFor(step, candidate)))
	}
	return feedback, Recommend(feedback, step.Attributes)
}

// ObtainFeedbackFromDOM evaluates only the selector the step was authored
// with. Unlike the per-class path, a selector that matches nothing is
// checked against the size of the recorded selector list: an expected index
// inside it reports the expected element, one beyond it is out of range.
func (e *Evaluator) ObtainFeedbackFromDOM(doc *dom.Document, step *schemas.StepRecord) schemas.DiagnosticResult {
	strategy, ok := StrategyFor(step.SelectorToUse)
	if !ok {
		return schemas.DiagnosticResult{
			SelectorClass: step.SelectorToUse,
			OutcomeCode:   schemas.NoSelectorFound,
			Elements:      []schemas.Element{},
		}
	}

	candidate := step.Candidate(step.SelectorToUse)
	target := TargetFor(step, candidate)
	result, elements, done := e.query(doc, strategy, candidate, target)
	if done {
		return result
	}
	if len(elements) == 0 {
		result.OutcomeCode, result.Elements = Classify(Classification{
			ExpectedIndex: target.ExpectedIndex,
			Bound:         len(step.Selectors),
			ExpectedValue: target.ExpectedValue,
			OriginalValue: target.ExpectedValue,
		})
		return result
	}
	return e.diagnose(result, elements, target)
}
