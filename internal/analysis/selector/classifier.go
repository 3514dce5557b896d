package selector

import "github.com/muuktest/selector-feedback/api/schemas"

// Classification is the input of Classify.
type Classification struct {
	// Matches are the elements that carried the expected value.
	Matches       []Match
	ExpectedIndex int
	// Bound is the exclusive upper limit for ExpectedIndex to be considered
	// addressable when nothing carried the value.
	Bound         int
	ExpectedValue string
	// OriginalValue is the best-effort value at ExpectedIndex.
	OriginalValue string
}

// Classify maps value-match cardinality and index correctness to an outcome
// code and the diagnostic elements. It is total over its input.
func Classify(c Classification) (schemas.OutcomeCode, []schemas.Element) {
	original := schemas.Element{
		Index:    schemas.At(c.ExpectedIndex),
		Selector: schemas.RoleOriginal,
		Value:    c.OriginalValue,
	}

	switch len(c.Matches) {
	case 0:
		if c.ExpectedIndex >= 0 && c.ExpectedIndex < c.Bound {
			return schemas.NoSelectorFoundWithSpecificValue, []schemas.Element{original}
		}
		return schemas.StepIndexOutOfRange, []schemas.Element{}

	case 1:
		m := c.Matches[0]
		if m.Index == c.ExpectedIndex {
			original.Value = m.Value
			return schemas.SelectorFoundWithCorrectIndex, []schemas.Element{original}
		}
		return schemas.SelectorFoundWithIncorrectIndex, []schemas.Element{
			original,
			{Index: schemas.At(m.Index), Selector: schemas.RoleFound, Value: m.Value},
		}
	}

	for _, m := range c.Matches {
		if m.Index == c.ExpectedIndex {
			original.Value = m.Value
			return schemas.MultipleWithValueCorrectIndex, []schemas.Element{original}
		}
	}
	return schemas.MultipleWithValueIncorrectIndex, []schemas.Element{
		original,
		{Index: schemas.AmbiguousAt(indexes(c.Matches)), Selector: schemas.RoleFound, Value: c.ExpectedValue},
	}
}
