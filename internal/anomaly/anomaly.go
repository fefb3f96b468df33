// Package anomaly wraps two generative-model flows over attendance text:
// detection over a CSV export and summarization of an anomaly description.
//
// Both flows render a prompt from the embedded catalog, ask the model for
// JSON matching the flow's fields, and validate the reply against the
// flow's CUE schema before decoding it. Nothing is retried.
package anomaly

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrEmptyInput is returned without calling the model when the input
	// is empty or whitespace.
	ErrEmptyInput = errors.New("input is empty")
	// ErrUnavailable wraps transport and model failures. Callers may retry.
	ErrUnavailable = errors.New("analysis service unavailable")
	// ErrInvalidOutput is returned when the model reply does not match the
	// flow schema.
	ErrInvalidOutput = errors.New("analysis returned invalid output")
)

// Request is one model call.
type Request struct {
	Flow   string
	Prompt string
	Fields []Field
}

// Model produces a JSON document for a request.
type Model interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// DetectionReport is the output of Detect.
type DetectionReport struct {
	Summary   string   `json:"summary"`
	Anomalies []string `json:"anomalies"`
}

// SummaryReport is the output of Summarize.
type SummaryReport struct {
	Summary string `json:"summary"`
}

// Analyzer runs the flows against a Model.
//
// Analyzer holds no in-flight state; concurrent calls are independent.
type Analyzer struct {
	model     Model
	catalog   *Catalog
	validator *validator
	logger    *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCatalog replaces the embedded prompt catalog.
func WithCatalog(c *Catalog) Option {
	return func(a *Analyzer) { a.catalog = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Analyzer over model.
func New(model Model, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.catalog == nil {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		a.catalog = c
	}
	for _, name := range []string{FlowDetect, FlowSummarize} {
		if _, err := a.catalog.Flow(name); err != nil {
			return nil, fmt.Errorf("prompt catalog: %w", err)
		}
	}

	v, err := newValidator(a.catalog)
	if err != nil {
		return nil, err
	}
	a.validator = v
	return a, nil
}

// Detect asks the model for anomalies in an attendance CSV.
func (a *Analyzer) Detect(ctx context.Context, attendanceCSV string) (DetectionReport, error) {
	if strings.TrimSpace(attendanceCSV) == "" {
		return DetectionReport{}, ErrEmptyInput
	}

	var out DetectionReport
	if err := a.run(ctx, FlowDetect, struct{ AttendanceData string }{attendanceCSV}, &out); err != nil {
		return DetectionReport{}, err
	}
	if out.Anomalies == nil {
		out.Anomalies = []string{}
	}
	return out, nil
}

// Summarize asks the model for a concise summary of an anomaly description.
func (a *Analyzer) Summarize(ctx context.Context, anomalies string) (SummaryReport, error) {
	if strings.TrimSpace(anomalies) == "" {
		return SummaryReport{}, ErrEmptyInput
	}

	var out SummaryReport
	if err := a.run(ctx, FlowSummarize, struct{ Anomalies string }{anomalies}, &out); err != nil {
		return SummaryReport{}, err
	}
	return out, nil
}

func (a *Analyzer) run(ctx context.Context, flow string, input, out any) error {
	fl, err := a.catalog.Flow(flow)
	if err != nil {
		return err
	}
	prompt, err := fl.Render(input)
	if err != nil {
		return err
	}

	a.logger.Debug("calling model", zap.String("flow", flow), zap.Int("prompt_bytes", len(prompt)))
	raw, err := a.model.Generate(ctx, Request{Flow: flow, Prompt: prompt, Fields: fl.Fields})
	if err != nil {
		a.logger.Warn("model call failed", zap.String("flow", flow), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, flow, err)
	}

	if err := a.validator.decode(flow, raw, out); err != nil {
		a.logger.Warn("model output rejected", zap.String("flow", flow), zap.Error(err))
		return err
	}
	return nil
}

// SummaryInput picks the text to summarize from a detection report: the
// summary when present, otherwise the anomalies one per line. It returns
// false when the report has neither.
func SummaryInput(r DetectionReport) (string, bool) {
	if strings.TrimSpace(r.Summary) != "" {
		return r.Summary, true
	}
	joined := strings.Join(r.Anomalies, "\n")
	if strings.TrimSpace(joined) == "" {
		return "", false
	}
	return joined, true
}
