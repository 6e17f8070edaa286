// Package pipeline runs every extraction pass over a corpus of judgments.
//
// Cases are processed one at a time in corpus order. A failure on one case
// is logged and recorded in the report; it never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coolbeans/hanrei/pkg/citation"
	"github.com/coolbeans/hanrei/pkg/issue"
	"github.com/coolbeans/hanrei/pkg/judgment"
	"github.com/coolbeans/hanrei/pkg/relation"
	"github.com/coolbeans/hanrei/pkg/rules"
	"github.com/coolbeans/hanrei/pkg/source"
	"github.com/coolbeans/hanrei/pkg/taxcat"
	"github.com/coolbeans/hanrei/pkg/types"
)

// Pipeline wires the extraction components to one rule set.
type Pipeline struct {
	rules      *rules.Rules
	logger     *zap.Logger
	citations  *citation.Extractor
	issues     *issue.Extractor
	metadata   *judgment.MetadataExtractor
	resolver   *relation.Resolver
	classifier *taxcat.Classifier

	citationOpts []citation.Option
	sections     bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithCitationLimits caps extracted citations.
func WithCitationLimits(limits citation.Limits) Option {
	return func(p *Pipeline) {
		p.citationOpts = append(p.citationOpts, citation.WithLimits(limits))
	}
}

// WithSections controls whether section spans are stored on cases.
func WithSections(enabled bool) Option {
	return func(p *Pipeline) { p.sections = enabled }
}

// New builds a pipeline over r.
func New(r *rules.Rules, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		rules:    r,
		logger:   zap.NewNop(),
		sections: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	classifier, err := taxcat.NewClassifier(r)
	if err != nil {
		return nil, fmt.Errorf("building tax classifier: %w", err)
	}
	p.classifier = classifier
	p.citations = citation.NewExtractor(r, p.citationOpts...)
	p.issues = issue.NewExtractor()
	p.metadata = judgment.NewMetadataExtractor(r)
	p.resolver = relation.NewResolver(r)
	return p, nil
}

// Extract runs the single-case passes on raw text: cleaning, metadata,
// sections, citations, issues and topic keywords. Metadata is read from the
// raw text, whose line layout cleaning changes; everything else reads the
// cleaned text. Citations and issues already present on c are kept. It
// returns the cleaned text and the name of the issue strategy that matched.
func (p *Pipeline) Extract(c *types.Case, raw string) (string, string, error) {
	text := judgment.Clean(raw)
	if err := judgment.Validate(text); err != nil {
		return "", "", err
	}

	p.metadata.Extract(raw).Fill(c)
	if p.sections {
		c.Sections = judgment.Segment(text)
	}
	if len(c.Laws) == 0 {
		c.Laws = p.citations.Extract(text, c.Title)
		if len(c.Laws) > 0 {
			c.LawsSource = types.LawsSourceExtracted
		}
	}

	var strategy string
	if len(c.Issues) == 0 {
		c.Issues, strategy = p.issues.Match(text, c.Title)
	}
	c.Keywords = issue.KeywordTags(p.rules, c.Title, text)
	return text, strategy, nil
}

// Process runs all passes over corpus, reading texts through reader.
// Cancellation is checked between cases; on cancellation the partial
// report is returned with the context error.
func (p *Pipeline) Process(ctx context.Context, corpus *types.Corpus, reader source.Reader) (*Report, error) {
	report := newReport(uuid.NewString(), time.Now())
	logger := p.logger.With(zap.String("run_id", report.RunID))
	texts := make(map[string]string, corpus.Len())

	logger.Info("processing corpus", zap.Int("cases", corpus.Len()))

	for _, c := range corpus.Cases() {
		if err := ctx.Err(); err != nil {
			return report.finish(corpus), err
		}
		report.Total++

		raw, err := reader.ReadText(ctx, c.Number)
		if err != nil {
			p.skip(logger, report, c.Number, err)
			continue
		}
		text, strategy, err := p.Extract(c, raw)
		if err != nil {
			p.skip(logger, report, c.Number, err)
			continue
		}
		texts[c.Number] = text
		report.Extracted++
		if strategy != "" {
			report.IssueStrategies[strategy]++
		}
		logger.Debug("extracted case",
			zap.String("number", c.Number),
			zap.Int("laws", len(c.Laws)),
			zap.Int("issues", len(c.Issues)))
	}

	// Resolution needs every case's own citations, so it runs after all
	// cases have been extracted.
	for _, c := range corpus.Cases() {
		if err := ctx.Err(); err != nil {
			return report.finish(corpus), err
		}
		text, ok := texts[c.Number]
		if !ok || len(c.Laws) > 0 {
			continue
		}
		res := p.resolver.Resolve(c, text, corpus)
		if res.Status == relation.StatusNoInheritance {
			res = relation.Fallback(c, text)
		}
		res.Apply(c)
		report.Resolutions[string(res.Status)]++
		logger.Debug("resolved case",
			zap.String("number", c.Number),
			zap.String("status", string(res.Status)),
			zap.String("reason", res.Reason))
	}

	// Tax categories run last so inherited tags exist. Cases without an
	// origin go first so that origins are classified before dependents.
	for _, pass := range []bool{false, true} {
		for _, c := range corpus.Cases() {
			if err := ctx.Err(); err != nil {
				return report.finish(corpus), err
			}
			if (c.OriginalCase != "") != pass {
				continue
			}
			res := p.classifier.Classify(c, texts[c.Number], corpus)
			c.TaxTypes = res.Tags
			report.TaxSources[string(res.Source)]++
			c.Normalize()
		}
	}

	report = report.finish(corpus)
	logger.Info("processing finished",
		zap.Int("total", report.Total),
		zap.Int("extracted", report.Extracted),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (p *Pipeline) skip(logger *zap.Logger, report *Report, number string, err error) {
	status := StatusFailed
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = StatusMissing
	case errors.Is(err, types.ErrMalformedInput):
		status = StatusMalformed
	}
	report.Skipped++
	report.Entries = append(report.Entries, Entry{Number: number, Status: status, Error: err.Error()})
	logger.Warn("skipping case",
		zap.String("number", number),
		zap.String("status", status),
		zap.Error(err))
}

// Reset clears everything a run derives from a case's text so the next run
// recomputes it. Header fields and explicit topics are kept.
func Reset(c *types.Case) {
	c.Laws = nil
	c.Issues = nil
	c.TaxTypes = nil
	c.Keywords = nil
	c.Sections = nil
	c.OriginalCase = ""
	c.LawsSource = ""
	c.JudgmentType = ""
}
