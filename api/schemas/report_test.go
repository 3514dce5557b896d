package schemas_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muuktest/selector-feedback/api/schemas"
)

func TestElementIndex_JSON(t *testing.T) {
	t.Run("single position encodes as a number", func(t *testing.T) {
		b, err := json.Marshal(schemas.At(2))
		require.NoError(t, err)
		assert.Equal(t, "2", string(b))

		var idx schemas.ElementIndex
		require.NoError(t, json.Unmarshal(b, &idx))
		assert.Equal(t, schemas.At(2), idx)
	})

	t.Run("ambiguous index encodes as the textual list", func(t *testing.T) {
		b, err := json.Marshal(schemas.AmbiguousAt([]int{1, 3}))
		require.NoError(t, err)
		assert.Equal(t, `"[1, 3]"`, string(b))

		var idx schemas.ElementIndex
		require.NoError(t, json.Unmarshal(b, &idx))
		assert.True(t, idx.IsAmbiguous())
		assert.Equal(t, []int{1, 3}, idx.Candidates)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var idx schemas.ElementIndex
		assert.Error(t, json.Unmarshal([]byte(`"[a, b]"`), &idx))
		assert.Error(t, json.Unmarshal([]byte(`true`), &idx))
	})
}

func TestReportStep_RoundTrip(t *testing.T) {
	input := `{"steps":[
		{"type":"comment","id":7,"text":"navigate"},
		{"type":"step","id":"s1","tag":"button","selectors":"[]"}
	]}`

	var report schemas.MuukReport
	require.NoError(t, json.Unmarshal([]byte(input), &report))
	require.Len(t, report.Steps, 2)
	assert.False(t, report.Steps[0].Analyzed)
	assert.Equal(t, "7", report.Steps[0].ID())

	report.Steps[1].Analyzed = true
	report.Steps[1].FeedbackSelectorToUse = schemas.XPath
	report.Steps[1].Feedback = []schemas.DiagnosticResult{
		{
			SelectorClass:   schemas.ClassicCSS,
			Selector:        "button.submit",
			RawMatchCount:   2,
			ValueMatchCount: 2,
			OutcomeCode:     schemas.MultipleWithValueIncorrectIndex,
			Elements: []schemas.Element{
				{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: "Cancel"},
				{Index: schemas.AmbiguousAt([]int{1, 2}), Selector: schemas.RoleFound, Value: "Submit"},
			},
		},
	}

	encoded, err := json.Marshal(&report)
	require.NoError(t, err)

	var decoded schemas.MuukReport
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	if diff := cmp.Diff(report, decoded); diff != "" {
		t.Errorf("report changed across a round trip (-want +got):\n%s", diff)
	}

	// The pass-through entry must not gain feedback keys.
	assert.NotContains(t, string(encoded), `"feedback":null`)
	assert.Contains(t, string(encoded), `"feedbackSelectorToUse":3`)
}

func TestOutcomeCodes_Taxonomy(t *testing.T) {
	assert.Len(t, schemas.OutcomeCodes, 14)
	seen := map[schemas.OutcomeCode]bool{}
	for _, c := range schemas.OutcomeCodes {
		assert.True(t, c.IsValid())
		assert.False(t, seen[c], "duplicate outcome code %s", c)
		seen[c] = true
	}
	assert.False(t, schemas.OutcomeCode("SOMETHING_ELSE").IsValid())
}

func TestStepRecord_Candidate(t *testing.T) {
	idx := 2
	step := schemas.StepRecord{Selectors: []schemas.SelectorCandidate{{Selector: "div"}, {Selector: "span", Index: &idx}}}

	assert.Equal(t, "span", step.Candidate(schemas.DynamicCSS).Selector)
	assert.Equal(t, 2, step.Candidate(schemas.DynamicCSS).ExpectedIndex())
	assert.Equal(t, 0, step.Candidate(schemas.ClassicCSS).ExpectedIndex())
	assert.True(t, step.Candidate(schemas.XPath).IsEmpty())
	assert.True(t, step.Candidate(schemas.NoSelectorClass).IsEmpty())
}

func TestOptional(t *testing.T) {
	v, ok := schemas.Some("x").Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.False(t, schemas.None().IsSet())
	assert.Equal(t, schemas.Optional{}, schemas.None())

	attrs := schemas.ElementAttributes{Type: schemas.Some("submit")}
	assert.True(t, attrs.HasIdentity())
	assert.False(t, schemas.ElementAttributes{Text: schemas.Some("t")}.HasIdentity())
}
