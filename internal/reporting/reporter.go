// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// Reporter writes assembled feedback reports to an output.
type Reporter interface {
	// Write adds the report of one test class.
	Write(className string, report *schemas.MuukReport) error
	// Close finalizes the output and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format ("json" or "sarif") writing to
// outputPath, or to stdout when outputPath is empty or "stdout".
func New(format, outputPath, toolVersion string) (Reporter, error) {
	if outputPath == "" || outputPath == "stdout" {
		return NewForWriter(format, os.Stdout, toolVersion)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	reporter, err := newReporter(format, f, toolVersion)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reporter, nil
}

// NewForWriter creates a reporter writing to w. Closing the reporter does not
// close w.
func NewForWriter(format string, w io.Writer, toolVersion string) (Reporter, error) {
	return newReporter(format, &nopWriteCloser{w}, toolVersion)
}

func newReporter(format string, writer io.WriteCloser, toolVersion string) (Reporter, error) {
	switch format {
	case "sarif":
		return NewSARIFReporter(writer, toolVersion), nil
	case "json":
		return NewJSONReporter(writer), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
