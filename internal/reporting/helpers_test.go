package reporting

import (
	"bytes"
	"errors"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// bufferCloser records whether Close was called.
type bufferCloser struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return b.closeErr
}

var errClose = errors.New("close failed")

// sampleReport has one pass-through entry and one analyzed step.
func sampleReport() *schemas.MuukReport {
	return &schemas.MuukReport{Steps: []schemas.ReportStep{
		schemas.PassThrough(map[string]interface{}{"type": "wait"}),
		{
			Fields:   map[string]interface{}{"id": "12", "type": "step"},
			Analyzed: true,
			Feedback: []schemas.DiagnosticResult{
				{
					SelectorClass: schemas.ClassicCSS, Selector: "button.btn",
					RawMatchCount: 2, ValueMatchCount: 1,
					OutcomeCode: schemas.SelectorFoundWithIncorrectIndex,
					Elements: []schemas.Element{
						{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: "Cancel"},
						{Index: schemas.At(1), Selector: schemas.RoleFound, Value: "Submit"},
					},
				},
				{SelectorClass: schemas.DynamicCSS, OutcomeCode: schemas.NoSelectorFound, Elements: []schemas.Element{}},
				{
					SelectorClass: schemas.CustomCSS, Selector: "#go",
					RawMatchCount: 1, ValueMatchCount: 1,
					OutcomeCode: schemas.OneSelectorFound,
					Elements:    []schemas.Element{{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: "Submit"}},
				},
				{
					SelectorClass: schemas.XPath, Selector: "//button[@id='go']",
					RawMatchCount: 1, ValueMatchCount: 1,
					OutcomeCode: schemas.OneSelectorFound,
					Elements:    []schemas.Element{{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: "Submit"}},
				},
			},
			FeedbackSelectorToUse: schemas.CustomCSS,
		},
	}}
}
