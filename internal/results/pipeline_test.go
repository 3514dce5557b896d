package results

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muuktest/selector-feedback/api/schemas"
)

func TestCreateMuukReport(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := newTestConfig(t)
	core, logs := observer.New(zap.DebugLevel)

	writeReport(t, cfg, testClass, []map[string]interface{}{
		{"type": "wait", "duration": 3},
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
		{"id": "2", "type": "step", "selectors": "[{broken", "value": "{}", "attributes": "{}"},
		recordedStep(t, "3", "click", loginSelectors(), "text", "Submit", loginAttributes()),
		recordedStep(t, "4", "mouseover", loginSelectors(), "text", "Submit", loginAttributes()),
	})
	writeSnapshot(t, cfg, testClass, "1", loginSnapshot)

	p := NewPipeline(cfg, zap.New(core))
	report, err := p.CreateMuukReport(context.Background(), testClass, "")
	require.NoError(t, err)
	require.Len(t, report.Steps, 5)

	t.Run("pass-through entries are untouched", func(t *testing.T) {
		assert.False(t, report.Steps[0].Analyzed)
		assert.Equal(t, "wait", report.Steps[0].Fields["type"])
	})

	t.Run("analyzed step", func(t *testing.T) {
		step := report.Steps[1]
		require.True(t, step.Analyzed)
		require.Len(t, step.Feedback, 4)

		classic := step.Feedback[0]
		assert.Equal(t, schemas.SelectorFoundWithIncorrectIndex, classic.OutcomeCode)
		assert.Equal(t, 2, classic.RawMatchCount)
		assert.Equal(t, []schemas.Element{
			{Index: schemas.At(0), Selector: schemas.RoleOriginal, Value: "Cancel"},
			{Index: schemas.At(1), Selector: schemas.RoleFound, Value: "Submit"},
		}, classic.Elements)

		assert.Equal(t, schemas.NoSelectorFound, step.Feedback[1].OutcomeCode)
		assert.Equal(t, schemas.OneSelectorFound, step.Feedback[2].OutcomeCode)
		assert.Equal(t, schemas.OneSelectorFound, step.Feedback[3].OutcomeCode)
		assert.Equal(t, schemas.XPath, step.FeedbackSelectorToUse)
	})

	t.Run("undecodable step passes through", func(t *testing.T) {
		assert.False(t, report.Steps[2].Analyzed)
		assert.Equal(t, "[{broken", report.Steps[2].Fields["selectors"])
		entries := logs.FilterMessage("Step could not be decoded, skipping analysis").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "2", entries[0].ContextMap()["step_id"])
	})

	t.Run("missing snapshot yields empty feedback", func(t *testing.T) {
		step := report.Steps[3]
		assert.True(t, step.Analyzed)
		assert.Empty(t, step.Feedback)
		assert.Equal(t, schemas.NoSelectorClass, step.FeedbackSelectorToUse)
		assert.NotZero(t, logs.FilterMessage("DOM snapshot unavailable").Len())
	})

	t.Run("mouseover is reported without a snapshot", func(t *testing.T) {
		step := report.Steps[4]
		require.Len(t, step.Feedback, 4)
		for _, d := range step.Feedback {
			assert.Equal(t, schemas.ActionNotValidForAnalysis, d.OutcomeCode)
			assert.Zero(t, d.RawMatchCount)
		}
	})

	t.Run("serialized shape", func(t *testing.T) {
		data, err := json.Marshal(report)
		require.NoError(t, err)

		var out struct {
			Steps []map[string]interface{} `json:"steps"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.NotContains(t, out.Steps[0], schemas.FeedbackKey)
		assert.Equal(t, float64(3), out.Steps[0]["duration"])
		assert.Contains(t, out.Steps[1], schemas.FeedbackKey)
		assert.Equal(t, float64(3), out.Steps[1][schemas.FeedbackSelectorToUseKey])
	})
}

func TestCreateMuukReport_PreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := newTestConfig(t)
	cfg.EngineCfg.WorkerConcurrency = 3

	const n = 24
	entries := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprint(i)
		entries = append(entries, recordedStep(t, id, "click",
			[]map[string]interface{}{sel("p.item", 0)}, "text", "Item "+id, map[string]string{}))
		writeSnapshot(t, cfg, testClass, id, fmt.Sprintf(`<p class="item">Item %d</p>`, i))
	}
	writeReport(t, cfg, testClass, entries)

	report, err := NewPipeline(cfg, zap.NewNop()).CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)
	require.Len(t, report.Steps, n)
	for i, step := range report.Steps {
		assert.Equal(t, fmt.Sprint(i), step.ID())
		require.NotEmpty(t, step.Feedback)
		assert.Equal(t, fmt.Sprintf("Item %d", i), step.Feedback[0].Elements[0].Value)
	}
}

func TestCreateMuukReport_Idempotent(t *testing.T) {
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
	})
	writeSnapshot(t, cfg, testClass, "1", loginSnapshot)
	p := NewPipeline(cfg, zap.NewNop())

	first, err := p.CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)
	second, err := p.CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestCreateMuukReport_MissingReport(t *testing.T) {
	cfg := newTestConfig(t)
	core, logs := observer.New(zap.WarnLevel)

	report, err := NewPipeline(cfg, zap.New(core)).CreateMuukReport(context.Background(), "Unknown", testBrowser)
	require.NoError(t, err)
	require.NotNil(t, report.Steps)
	assert.Empty(t, report.Steps)
	assert.Equal(t, 1, logs.FilterMessage("Muuk report was not found").Len())
}

func TestCreateMuukReport_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewPipeline(cfg, zap.NewNop()).CreateMuukReport(ctx, testClass, testBrowser)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestCreateMuukReport_EnginePanicIsContained(t *testing.T) {
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
		{"type": "wait"},
	})
	writeSnapshot(t, cfg, testClass, "1", loginSnapshot)
	core, logs := observer.New(zap.ErrorLevel)

	p := NewPipeline(cfg, zap.New(core))
	p.evaluator = nil // dereferenced while diagnosing the two matching buttons

	report, err := p.CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)
	require.Len(t, report.Steps, 2)
	assert.False(t, report.Steps[0].Analyzed)
	assert.Equal(t, 1, logs.FilterMessage("Step analysis failed").Len())
}

func TestCreateMuukReport_Trace(t *testing.T) {
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{{"type": "wait"}})

	var trace bytes.Buffer
	p := NewPipeline(cfg, zap.NewNop(), WithTraceOutput(&trace))

	_, err := p.CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)
	assert.Empty(t, trace.String(), "no marker, no trace")

	require.NoError(t, os.WriteFile(cfg.ReportCfg.TraceMarker, nil, 0o644))
	_, err = p.CreateMuukReport(context.Background(), testClass, testBrowser)
	require.NoError(t, err)
	assert.Contains(t, trace.String(), `"type": "wait"`)
}

type unserializable struct{}

func (unserializable) MarshalJSON() ([]byte, error) { return nil, errors.New("cannot encode") }

func TestValidate(t *testing.T) {
	t.Run("valid report round-trips", func(t *testing.T) {
		report := &schemas.MuukReport{Steps: []schemas.ReportStep{
			schemas.PassThrough(map[string]interface{}{"type": "wait"}),
			{
				Fields:                map[string]interface{}{"id": "1", "type": "step"},
				Analyzed:              true,
				Feedback:              []schemas.DiagnosticResult{{OutcomeCode: schemas.NoSelectorFound, Elements: []schemas.Element{}}},
				FeedbackSelectorToUse: schemas.ClassicCSS,
			},
		}}
		got := validate(report, zap.NewNop())
		assert.Same(t, report, got)

		data, err := json.Marshal(got)
		require.NoError(t, err)
		var decoded schemas.MuukReport
		require.NoError(t, json.Unmarshal(data, &decoded))
		if diff := cmp.Diff(report, &decoded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unserializable report degrades to empty steps", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		report := &schemas.MuukReport{Steps: []schemas.ReportStep{
			schemas.PassThrough(map[string]interface{}{"bad": unserializable{}}),
		}}

		got := validate(report, zap.New(core))
		require.NotNil(t, got.Steps)
		assert.Empty(t, got.Steps)
		assert.Equal(t, 1, logs.Len())

		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"steps":[]}`, string(data))
	})
}

func TestInspectStep(t *testing.T) {
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{
		{"type": "wait"},
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
	})
	writeSnapshot(t, cfg, testClass, "1", loginSnapshot)
	p := NewPipeline(cfg, zap.NewNop())

	result, err := p.InspectStep(context.Background(), testClass, "", "1")
	require.NoError(t, err)
	assert.Equal(t, schemas.ClassicCSS, result.SelectorClass)
	assert.Equal(t, schemas.SelectorFoundWithIncorrectIndex, result.OutcomeCode)

	_, err = p.InspectStep(context.Background(), testClass, "", "99")
	assert.ErrorIs(t, err, ErrStepNotFound)

	_, err = p.InspectStep(context.Background(), "Unknown", "", "1")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestInspectStep_MissingSnapshot(t *testing.T) {
	cfg := newTestConfig(t)
	writeReport(t, cfg, testClass, []map[string]interface{}{
		recordedStep(t, "1", "click", loginSelectors(), "text", "Submit", loginAttributes()),
		recordedStep(t, "2", schemas.ActionMouseOver, loginSelectors(), "text", "Submit", loginAttributes()),
	})
	p := NewPipeline(cfg, zap.NewNop())

	result, err := p.InspectStep(context.Background(), testClass, "", "1")
	require.NoError(t, err)
	assert.Equal(t, schemas.ClassicCSS, result.SelectorClass)
	assert.Equal(t, schemas.NoSelectorFound, result.OutcomeCode)
	assert.Zero(t, result.RawMatchCount)
	assert.Empty(t, result.Elements)

	report, err := p.CreateMuukReport(context.Background(), testClass, "")
	require.NoError(t, err)
	require.Len(t, report.Steps, 2)
	assert.Empty(t, report.Steps[0].Feedback, "both endpoints treat a missing snapshot alike")
	assert.Equal(t, schemas.NoSelectorClass, report.Steps[0].FeedbackSelectorToUse)

	hover, err := p.InspectStep(context.Background(), testClass, "", "2")
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionNotValidForAnalysis, hover.OutcomeCode, "hover steps need no snapshot")
}

func TestPaths(t *testing.T) {
	cfg := newTestConfig(t)
	p := NewPipeline(cfg, zap.NewNop())

	assert.Equal(t, cfg.ReportCfg.Dir+"/LoginTest.json", p.ReportPath("LoginTest"))
	assert.Equal(t, cfg.ReportCfg.DOMDir+"/LoginTest_7_firefox.html", p.SnapshotPath("LoginTest", "7", "firefox"))
	assert.Equal(t, cfg.ReportCfg.DOMDir+"/LoginTest___x_chrome.html", p.SnapshotPath("LoginTest", "../x", "chrome"))
}
