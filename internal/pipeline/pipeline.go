// Package pipeline runs fetch, flatten and aggregate for one filing date.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bighogz/form4-sales/internal/aggregator"
	"github.com/bighogz/form4-sales/internal/config"
	"github.com/bighogz/form4-sales/internal/flatten"
	"github.com/bighogz/form4-sales/internal/httpclient"
	"github.com/bighogz/form4-sales/internal/models"
	"github.com/bighogz/form4-sales/internal/pacing"
	"github.com/bighogz/form4-sales/internal/secapi"
)

// DateLayout is the accepted target date format.
const DateLayout = "2006-01-02"

var tracer = otel.Tracer("github.com/bighogz/form4-sales/internal/pipeline")

// Fetcher retrieves every filing for a date. *secapi.Fetcher implements it.
type Fetcher interface {
	FetchDate(ctx context.Context, date time.Time) (*secapi.FetchResult, error)
}

// Result is the outcome of one run.
type Result struct {
	RunID         string
	Date          time.Time
	TotalReported int
	Filings       int
	Rows          int
	Sales         []models.SaleRow
	Truncated     bool
}

// DateString returns the target date as YYYY-MM-DD.
func (r *Result) DateString() string {
	return r.Date.Format(DateLayout)
}

// Pipeline wires the stages together.
type Pipeline struct {
	fetcher  Fetcher
	rowPacer secapi.Waiter
}

// New builds a Pipeline. rowPacer may be nil.
func New(fetcher Fetcher, rowPacer secapi.Waiter) *Pipeline {
	return &Pipeline{fetcher: fetcher, rowPacer: rowPacer}
}

// FromConfig validates cfg and builds the sec-api client, fetcher and pacers
// it describes. onPage may be nil.
func FromConfig(cfg *config.Config, onPage func(secapi.Progress)) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	client := secapi.New(secapi.Options{
		APIKey:     cfg.SECAPI.Key,
		BaseURL:    cfg.SECAPI.BaseURL,
		HTTPClient: httpclient.New(cfg.SECAPI.Timeout()),
	})
	pagePacer := pacing.New(cfg.Pacing.PageDelay())
	rowPacer := pacing.New(cfg.Pacing.RowDelay())
	zap.L().Debug("pipeline: pacing",
		zap.Duration("page_delay", pagePacer.Delay()),
		zap.Duration("row_delay", rowPacer.Delay()),
	)
	fetcher := secapi.NewFetcher(client, secapi.FetchOptions{
		PageSize:    cfg.SECAPI.PageSize,
		Concurrency: cfg.SECAPI.Concurrency,
		Pacer:       pagePacer,
		OnPage:      onPage,
	})
	return New(fetcher, rowPacer), nil
}

// ParseDate parses a YYYY-MM-DD target date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &InputError{Err: err}
	}
	return t, nil
}

// Run fetches, flattens and aggregates the filings for date. Errors from the
// fetch stage are returned unwrapped so Classify can inspect them.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (*Result, error) {
	res := &Result{RunID: uuid.New().String(), Date: date}
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("run.date", res.DateString()),
	)
	log := zap.L().With(zap.String("run_id", res.RunID), zap.String("date", res.DateString()))

	fetched, err := p.fetcher.FetchDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		log.Warn("fetch failed", zap.Error(err))
		return nil, err
	}
	res.TotalReported = fetched.Total
	res.Filings = len(fetched.Filings)
	res.Truncated = fetched.Truncated
	span.AddEvent("fetched", trace.WithAttributes(
		attribute.Int("total", res.TotalReported),
		attribute.Int("filings", res.Filings),
		attribute.Bool("truncated", res.Truncated),
	))
	if fetched.Total == 0 {
		log.Info("no filings for date")
		return res, nil
	}

	rows, err := p.flatten(ctx, fetched.Filings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flatten failed")
		return nil, err
	}
	res.Rows = len(rows)

	_, aggSpan := tracer.Start(ctx, "pipeline.Aggregate")
	res.Sales = aggregator.Sales(rows)
	aggSpan.SetAttributes(attribute.Int("rows", len(rows)), attribute.Int("sales", len(res.Sales)))
	aggSpan.End()

	span.SetAttributes(attribute.Int("run.sales", len(res.Sales)))
	log.Info("run complete",
		zap.Int("filings", res.Filings),
		zap.Int("rows", res.Rows),
		zap.Int("sales", len(res.Sales)),
	)
	return res, nil
}

func (p *Pipeline) flatten(ctx context.Context, filings []models.RawFiling) ([]models.FlatRow, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Flatten")
	defer span.End()

	var rows []models.FlatRow
	err := flatten.Each(filings, func(r models.FlatRow) error {
		if p.rowPacer != nil {
			if err := p.rowPacer.Wait(ctx); err != nil {
				return err
			}
		}
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}
