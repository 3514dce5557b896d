package reporting

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/observability"
)

// JSONReporter writes each report as a {"steps": [...]} document, the format
// consumed by the MuukTest backend, as one indented document per Write.
type JSONReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONReporter creates a reporter that writes JSON output.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		logger: observability.GetLogger().Named("json_reporter"),
	}
}

// Write encodes the report immediately.
func (r *JSONReporter) Write(className string, report *schemas.MuukReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if report == nil {
		report = schemas.EmptyReport()
	}
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report for %s: %w", className, err)
	}
	r.logger.Debug("Wrote JSON report", zap.String("class", className), zap.Int("steps", len(report.Steps)))
	return nil
}

// Close closes the underlying writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}
