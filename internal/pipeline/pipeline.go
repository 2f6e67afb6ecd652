package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/model"
)

// PageJob carries one single-page index request through the steps.
// Each step fills in the fields the next one needs.
type PageJob struct {
	// URL is the requested page URL.
	URL string

	// SiteConfig is the configured site containing URL.
	SiteConfig config.SiteConfig

	// Site is the stored site row.
	Site *model.Site

	// Document is the fetched page.
	Document *crawler.Document

	// Page is the stored page after indexing.
	Page *model.Page
}

// Step is one stage of single-page indexing.
type Step interface {
	// Do executes the step. An error ends the pipeline.
	Do(ctx context.Context, job *PageJob) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step and returns the first error.
// Cancellation is checked before each step.
func (p *Pipeline) Execute(ctx context.Context, job *PageJob) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "url", job.URL, "reason", err)
			return err
		}

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed", "step", step.Name(), "url", job.URL, "error", err)
			return err
		}
		p.logger.Debug("step completed", "step", step.Name(), "url", job.URL)
	}
	return nil
}
