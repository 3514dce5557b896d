package reporting

import (
	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/reporting/sarif"
)

// outcomeRule is the SARIF rule text of an outcome code.
type outcomeRule struct {
	name        string
	description string
	help        string
	level       sarif.Level
}

var outcomeRules = map[schemas.OutcomeCode]outcomeRule{
	schemas.NoSelectorFound: {
		name:        "SelectorNotRecorded",
		description: "No selector was recorded for this selector class.",
		help:        "Nothing to fix; the recorder did not produce a selector of this class for the step.",
		level:       sarif.LevelNone,
	},
	schemas.OneSelectorFound: {
		name:        "UniqueMatch",
		description: "The selector matched exactly one element.",
		help:        "The selector is unambiguous in the captured DOM.",
		level:       sarif.LevelNote,
	},
	schemas.MultipleSelectorsFound: {
		name:        "AmbiguousMatch",
		description: "The selector matched several elements and the step declares no usable search type.",
		help:        "Record a search type (value, href, text or imgsrc) so the intended element can be identified.",
		level:       sarif.LevelWarning,
	},
	schemas.NoSelectorFoundWithSpecificValue: {
		name:        "ExpectedValueMissing",
		description: "No matched element carries the expected value.",
		help:        "The page content changed or the selector points at the wrong elements. Re-record the step.",
		level:       sarif.LevelError,
	},
	schemas.SelectorFoundWithCorrectIndex: {
		name:        "ValueAtExpectedIndex",
		description: "Exactly one matched element carries the expected value, at the recorded index.",
		help:        "The selector and index are consistent with the captured DOM.",
		level:       sarif.LevelNote,
	},
	schemas.SelectorFoundWithIncorrectIndex: {
		name:        "ValueAtOtherIndex",
		description: "Exactly one matched element carries the expected value, but not at the recorded index.",
		help:        "Update the step to use the index of the element that was found.",
		level:       sarif.LevelWarning,
	},
	schemas.MultipleWithValueCorrectIndex: {
		name:        "SeveralValuesIncludingExpectedIndex",
		description: "Several matched elements carry the expected value, including the one at the recorded index.",
		help:        "The step works, but a more specific selector would remove the dependency on the index.",
		level:       sarif.LevelNote,
	},
	schemas.MultipleWithValueIncorrectIndex: {
		name:        "SeveralValuesElsewhere",
		description: "Several matched elements carry the expected value, none at the recorded index.",
		help:        "The selector is ambiguous and the recorded index is stale. Use a more specific selector.",
		level:       sarif.LevelWarning,
	},
	schemas.NoTagProvided: {
		name:        "TagMissing",
		description: "The step has no recorded tag, so the XPath selector could not be normalized.",
		help:        "Record the element tag for the step.",
		level:       sarif.LevelNote,
	},
	schemas.NoValueProvided: {
		name:        "ExpectedValueNotRecorded",
		description: "The step searches by text but recorded no expected text.",
		help:        "Record the expected text for the step.",
		level:       sarif.LevelNote,
	},
	schemas.StepIndexOutOfRange: {
		name:        "IndexOutOfRange",
		description: "The recorded index is larger than the number of elements the selector can address.",
		help:        "The page structure changed. Re-record the step.",
		level:       sarif.LevelError,
	},
	schemas.NoSelectorFoundWithNtagSelector: {
		name:        "NoMatch",
		description: "The selector matched no element in the captured DOM.",
		help:        "The selector is broken for this page. Prefer the recommended selector class.",
		level:       sarif.LevelError,
	},
	schemas.SelectElementIncorrectValue: {
		name:        "SelectOptionValueChanged",
		description: "The option with the expected text exists, but its value differs from the recorded one.",
		help:        "Update the step to select the option value that was found.",
		level:       sarif.LevelWarning,
	},
	schemas.ActionNotValidForAnalysis: {
		name:        "ActionNotAnalyzed",
		description: "Hover actions are not analyzed.",
		help:        "Nothing to fix; hover targets have no stable value to compare.",
		level:       sarif.LevelNone,
	},
}

// ruleFor returns the rule text of a code, with a generic entry for codes
// the table does not know.
func ruleFor(code schemas.OutcomeCode) outcomeRule {
	if rule, ok := outcomeRules[code]; ok {
		return rule
	}
	return outcomeRule{
		name:        "UnknownOutcome",
		description: "Unrecognized outcome code " + string(code) + ".",
		level:       sarif.LevelNote,
	}
}
