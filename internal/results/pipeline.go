// File: internal/results/pipeline.go
package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/analysis/selector"
	"github.com/muuktest/selector-feedback/internal/browser/dom"
	"github.com/muuktest/selector-feedback/internal/config"
)

// Pipeline assembles the selector feedback report of a test class from the
// recorder report and the DOM snapshots captured during the run.
type Pipeline struct {
	cfg       config.Interface
	evaluator *selector.Evaluator
	logger    *zap.Logger
	traceOut  io.Writer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTraceOutput redirects the trace dump, stderr by default.
func WithTraceOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.traceOut = w }
}

// WithEvaluator replaces the evaluator built from the engine configuration.
func WithEvaluator(e *selector.Evaluator) PipelineOption {
	return func(p *Pipeline) { p.evaluator = e }
}

// NewPipeline creates a new report assembly pipeline.
func NewPipeline(cfg config.Interface, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger.Named("results"),
		traceOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.evaluator == nil {
		p.evaluator = selector.NewEvaluator(logger, selector.WithAttributeFallback(cfg.Engine().AttributeFallback))
	}
	return p
}

// ReportPath is the recorder report of a test class.
func (p *Pipeline) ReportPath(className string) string {
	return filepath.Join(expand(p.cfg.Report().Dir), reportFileName(className))
}

// SnapshotPath is the DOM snapshot of one step in one browser.
func (p *Pipeline) SnapshotPath(className, stepID, browser string) string {
	return filepath.Join(expand(p.cfg.Report().DOMDir), snapshotFileName(className, stepID, browser))
}

func (p *Pipeline) browserOrDefault(browser string) string {
	if browser == "" {
		return p.cfg.Report().Browser
	}
	return browser
}

// CreateMuukReport analyzes every step of a test class. Steps are analyzed
// concurrently and emitted in report order. Missing or malformed inputs
// degrade the report instead of failing it; only cancellation of ctx is
// returned as an error.
func (p *Pipeline) CreateMuukReport(ctx context.Context, className, browser string) (*schemas.MuukReport, error) {
	browser = p.browserOrDefault(browser)
	logger := p.logger.With(zap.String("class", className), zap.String("browser", browser))

	entries, err := ReadReport(p.ReportPath(className))
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			logger.Warn("Muuk report was not found", zap.Error(err))
		} else {
			logger.Error("Could not load Muuk report", zap.Error(err))
		}
		entries = nil
	}
	logger.Info("Starting selector analysis", zap.Int("entries", len(entries)))

	steps := make([]schemas.ReportStep, len(entries))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Engine().WorkerConcurrency)
	for i, entry := range entries {
		if groupCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			steps[i] = p.processEntry(groupCtx, className, browser, entry)
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := validate(&schemas.MuukReport{Steps: steps}, logger)
	traceIfMarked(p.cfg.Report().TraceMarker, report, p.traceOut, logger)
	logger.Info("Selector analysis complete", zap.Int("steps", len(report.Steps)))
	return report, nil
}

// processEntry never fails: entries that cannot be analyzed pass through
// unchanged.
func (p *Pipeline) processEntry(ctx context.Context, className, browser string, fields map[string]interface{}) schemas.ReportStep {
	if !IsStep(fields) {
		return schemas.PassThrough(fields)
	}

	stepLogger := p.logger.With(zap.String("step_id", stringField(fields, keyID)))
	step, err := DecodeStep(fields)
	if err != nil {
		stepLogger.Warn("Step could not be decoded, skipping analysis", zap.Error(err))
		return schemas.PassThrough(fields)
	}

	feedback, recommended, err := p.analyzeStep(ctx, className, browser, step)
	if err != nil {
		stepLogger.Error("Step analysis failed", zap.Error(err))
		return schemas.PassThrough(fields)
	}
	return schemas.ReportStep{
		Fields:                fields,
		Analyzed:              true,
		Feedback:              feedback,
		FeedbackSelectorToUse: recommended,
	}
}

type stepOutcome struct {
	feedback    []schemas.DiagnosticResult
	recommended schemas.SelectorClass
	err         error
}

// analyzeStep runs the engine on one step, bounded by the configured step
// timeout. A panic in the engine is reported as an error.
func (p *Pipeline) analyzeStep(ctx context.Context, className, browser string, step *schemas.StepRecord) ([]schemas.DiagnosticResult, schemas.SelectorClass, error) {
	if timeout := p.cfg.Engine().StepTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan stepOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Debug("Recovered engine panic", zap.ByteString("stack", debug.Stack()))
				done <- stepOutcome{err: fmt.Errorf("panic during analysis: %v", r)}
			}
		}()
		feedback, recommended := p.runEngine(className, browser, step)
		done <- stepOutcome{feedback: feedback, recommended: recommended}
	}()

	select {
	case out := <-done:
		return out.feedback, out.recommended, out.err
	case <-ctx.Done():
		return nil, schemas.NoSelectorClass, ctx.Err()
	}
}

func (p *Pipeline) runEngine(className, browser string, step *schemas.StepRecord) ([]schemas.DiagnosticResult, schemas.SelectorClass) {
	doc, err := p.loadSnapshot(className, browser, step.ID)
	if err != nil && step.Action != schemas.ActionMouseOver {
		return []schemas.DiagnosticResult{}, schemas.NoSelectorClass
	}
	return p.evaluator.AnalyzeStep(doc, step)
}

// loadSnapshot returns the step's DOM snapshot. Failures are logged.
func (p *Pipeline) loadSnapshot(className, browser, stepID string) (*dom.Document, error) {
	path := p.SnapshotPath(className, stepID, browser)
	doc, err := dom.LoadSnapshot(path)
	if err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, dom.ErrSnapshotNotFound) {
			level = zap.WarnLevel
		}
		p.logger.Log(level, "DOM snapshot unavailable", zap.String("step_id", stepID), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

// InspectStep evaluates only the selector a step was authored with.
func (p *Pipeline) InspectStep(ctx context.Context, className, browser, stepID string) (schemas.DiagnosticResult, error) {
	browser = p.browserOrDefault(browser)
	entries, err := ReadReport(p.ReportPath(className))
	if err != nil {
		return schemas.DiagnosticResult{}, err
	}

	for _, fields := range entries {
		if !IsStep(fields) || stringField(fields, keyID) != stepID {
			continue
		}
		step, err := DecodeStep(fields)
		if err != nil {
			return schemas.DiagnosticResult{}, fmt.Errorf("step %s: %w", stepID, err)
		}
		if err := ctx.Err(); err != nil {
			return schemas.DiagnosticResult{}, err
		}
		doc, err := p.loadSnapshot(className, browser, step.ID)
		if err != nil && step.Action != schemas.ActionMouseOver {
			return emptyDiagnostic(step), nil
		}
		return p.evaluator.ObtainFeedbackFromDOM(doc, step), nil
	}
	return schemas.DiagnosticResult{}, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
}

// emptyDiagnostic is reported for a step whose snapshot could not be loaded.
func emptyDiagnostic(step *schemas.StepRecord) schemas.DiagnosticResult {
	return schemas.DiagnosticResult{
		SelectorClass: step.SelectorToUse,
		Selector:      step.Candidate(step.SelectorToUse).Selector,
		OutcomeCode:   schemas.NoSelectorFound,
		Elements:      []schemas.Element{},
	}
}

// expand resolves a leading "~" in configured paths.
func expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
