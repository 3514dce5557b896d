package results

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// ErrReportNotFound is returned when a test class has no recorder report.
var ErrReportNotFound = errors.New("muuk report not found")

// ErrStepNotFound is returned when a report has no step with the requested id.
var ErrStepNotFound = errors.New("step not found in report")

// legacyReport is the recorder output for one test class.
type legacyReport struct {
	StepsFeedback []map[string]interface{} `json:"stepsFeedback"`
}

// ReadReport loads the entries of a recorder report. Numbers are kept as
// written so pass-through entries are emitted unchanged.
func ReadReport(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
		}
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var report legacyReport
	if err := decoder.Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return report.StepsFeedback, nil
}

// snapshotFileName is the DOM snapshot name for one step and browser.
func snapshotFileName(className, stepID, browser string) string {
	return fmt.Sprintf("%s_%s_%s.html", safeName(className), safeName(stepID), safeName(browser))
}

// safeName keeps a file name component inside its directory.
func safeName(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(s)
}

func reportFileName(className string) string {
	return safeName(className) + ".json"
}

// validate checks that the report survives a serialization round trip.
// A report that does not is replaced by an empty one.
func validate(report *schemas.MuukReport, logger *zap.Logger) *schemas.MuukReport {
	data, err := json.Marshal(report)
	if err == nil {
		var decoded schemas.MuukReport
		err = json.Unmarshal(data, &decoded)
	}
	if err != nil {
		logger.Error("Invalid report format was found, feedback will not be sent", zap.Error(err))
		return schemas.EmptyReport()
	}
	return report
}

// traceIfMarked dumps the steps to w when the marker file exists in the
// working directory.
func traceIfMarked(marker string, report *schemas.MuukReport, w io.Writer, logger *zap.Logger) {
	if marker == "" {
		return
	}
	if _, err := os.Stat(marker); err != nil {
		return
	}
	data, err := prettySteps(report.Steps)
	if err != nil {
		logger.Warn("Could not render trace report", zap.Error(err))
		return
	}
	w.Write(data)
	fmt.Fprintln(w)
}

// prettySteps indents the flattened steps. ReportStep marshals itself
// compactly, so the steps are re-read as plain values first.
func prettySteps(steps []schemas.ReportStep) ([]byte, error) {
	compact, err := json.Marshal(steps)
	if err != nil {
		return nil, err
	}
	var plain interface{}
	if err := json.Unmarshal(compact, &plain); err != nil {
		return nil, err
	}
	return json.MarshalIndent(plain, "", "  ")
}
