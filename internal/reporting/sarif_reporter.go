// internal/reporting/sarif_reporter.go
package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/observability"
	"github.com/muuktest/selector-feedback/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "muuk selector feedback"
	ToolInfoURI  = "https://github.com/muuktest/selector-feedback"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"

	// fingerprintKey versions the partial fingerprint scheme.
	fingerprintKey = "selectorFeedback/v1"
)

// ruleIDSanitizer matches runs of characters not allowed in rule IDs.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0
// format. Each outcome code becomes one rule and each per-class diagnostic
// of an analyzed step becomes one result. It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and the rule index.
	mu          sync.Mutex
	ruleIndexes map[schemas.OutcomeCode]int
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Empty, not nil, so the arrays are always present in the output.
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer:      writer,
		logger:      observability.GetLogger().Named("sarif_reporter"),
		log:         log,
		ruleIndexes: make(map[schemas.OutcomeCode]int),
	}
}

// Write converts the diagnostics of every analyzed step into SARIF results.
func (r *SARIFReporter) Write(className string, report *schemas.MuukReport) error {
	if report == nil {
		return nil
	}
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	written := 0
	for _, step := range report.Steps {
		if !step.Analyzed {
			continue
		}
		for _, diagnostic := range step.Feedback {
			run.Results = append(run.Results, r.newResult(className, step, diagnostic))
			written++
		}
	}

	if written > 0 {
		r.logger.Debug("Wrote diagnostics to SARIF buffer",
			zap.String("class", className),
			zap.Int("results_count", written),
			zap.Duration("duration_ms", time.Since(startTime)),
		)
	}
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

// newResult builds the result of one diagnostic. Must be called while
// holding the mutex.
func (r *SARIFReporter) newResult(className string, step schemas.ReportStep, d schemas.DiagnosticResult) *sarif.Result {
	ruleID, ruleIndex := r.ensureRule(d.OutcomeCode)
	rule := ruleFor(d.OutcomeCode)
	stepID := step.ID()

	message := fmt.Sprintf("%s selector %q: %s Matched %d element(s), %d with the expected value.",
		d.SelectorClass, d.Selector, rule.description, d.RawMatchCount, d.ValueMatchCount)

	elements := make([]string, 0, len(d.Elements))
	for _, el := range d.Elements {
		elements = append(elements, fmt.Sprintf("%s@%s=%q", el.Selector, el.Index, el.Value))
	}

	return &sarif.Result{
		RuleID:    ruleID,
		RuleIndex: ruleIndex,
		Message:   &sarif.Message{Text: pString(message)},
		Level:     rule.level,
		Locations: []*sarif.Location{{
			LogicalLocations: []*sarif.LogicalLocation{{
				Name:               pString(stepID),
				FullyQualifiedName: pString(fmt.Sprintf("%s/%s/%s", className, stepID, d.SelectorClass)),
				Kind:               pString("test-step"),
			}},
		}},
		PartialFingerprints: map[string]string{
			fingerprintKey: fingerprint(className, stepID, d.SelectorClass.String(), d.Selector),
		},
		Properties: &sarif.PropertyBag{
			"stepId":          stepID,
			"selectorClass":   int(d.SelectorClass),
			"rawMatchCount":   d.RawMatchCount,
			"valueMatchCount": d.ValueMatchCount,
			"elements":        elements,
			"recommended":     step.FeedbackSelectorToUse == d.SelectorClass,
		},
	}
}

// ensureRule registers the rule of an outcome code on first use and returns
// its ID and index. Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(code schemas.OutcomeCode) (string, int) {
	ruleID := ruleIDFor(code)
	if index, ok := r.ruleIndexes[code]; ok {
		return ruleID, index
	}

	rule := ruleFor(code)
	driver := r.log.Runs[0].Tool.Driver
	markdownHelp := fmt.Sprintf("**Outcome:** `%s`\n\n%s\n\n**Action:** %s", code, rule.description, rule.help)
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               ruleID,
		Name:             pString(rule.name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(rule.description)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(rule.description)},
		Help: &sarif.MultiformatMessageString{
			Text:     pString(rule.help),
			Markdown: pString(markdownHelp),
		},
		DefaultConfiguration: &sarif.Configuration{Level: rule.level},
		Properties: &sarif.PropertyBag{
			"tags":        []string{"selector", "ui-test"},
			"outcomeCode": string(code),
		},
	})

	index := len(driver.Rules) - 1
	r.ruleIndexes[code] = index
	r.logger.Debug("Registered SARIF rule", zap.String("rule_id", ruleID))
	return ruleID, index
}

// ruleIDFor derives a stable rule ID from an outcome code.
func ruleIDFor(code schemas.OutcomeCode) string {
	name := strings.Trim(ruleIDSanitizer.ReplaceAllString(strings.ToUpper(string(code)), "-"), "-")
	if name == "" {
		name = "UNKNOWN"
	}
	return "MUUK-" + name
}

// fingerprint identifies a selector of a step across runs.
func fingerprint(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}
