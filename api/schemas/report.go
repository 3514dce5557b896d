package schemas

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Keys added to every analyzed step in the output report.
const (
	FeedbackKey              = "feedback"
	FeedbackSelectorToUseKey = "feedbackSelectorToUse"
)

// ReportStep is one entry of the output report. Fields holds the entry exactly
// as it was read from the input report; analyzed steps additionally carry the
// per-class feedback and the recommended class.
type ReportStep struct {
	Fields                map[string]interface{}
	Analyzed              bool
	Feedback              []DiagnosticResult
	FeedbackSelectorToUse SelectorClass
}

// PassThrough wraps an input entry that is emitted unchanged.
func PassThrough(fields map[string]interface{}) ReportStep {
	return ReportStep{Fields: fields, FeedbackSelectorToUse: NoSelectorClass}
}

// ID returns the step identifier as found in the input, if any.
func (s ReportStep) ID() string {
	if v, ok := s.Fields["id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// MarshalJSON flattens the original fields and the feedback into one object.
func (s ReportStep) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Fields)+2)
	for k, v := range s.Fields {
		out[k] = v
	}
	if s.Analyzed {
		feedback := s.Feedback
		if feedback == nil {
			feedback = []DiagnosticResult{}
		}
		out[FeedbackKey] = feedback
		out[FeedbackSelectorToUseKey] = s.FeedbackSelectorToUse
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the feedback keys back out of the object.
func (s *ReportStep) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("report step: %w", err)
	}

	step := ReportStep{Fields: make(map[string]interface{}, len(raw)), FeedbackSelectorToUse: NoSelectorClass}
	for k, v := range raw {
		switch k {
		case FeedbackKey:
			step.Analyzed = true
			if err := json.Unmarshal(v, &step.Feedback); err != nil {
				return fmt.Errorf("report step feedback: %w", err)
			}
		case FeedbackSelectorToUseKey:
			step.Analyzed = true
			if err := json.Unmarshal(v, &step.FeedbackSelectorToUse); err != nil {
				return fmt.Errorf("report step recommendation: %w", err)
			}
		default:
			var value interface{}
			if err := json.Unmarshal(v, &value); err != nil {
				return fmt.Errorf("report step field %q: %w", k, err)
			}
			step.Fields[k] = value
		}
	}
	*s = step
	return nil
}

// MuukReport is the aggregate produced for one test class run.
type MuukReport struct {
	Steps []ReportStep `json:"steps"`
}

// EmptyReport returns a report whose steps serialize as an empty list.
func EmptyReport() *MuukReport {
	return &MuukReport{Steps: []ReportStep{}}
}
