package secapi

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bighogz/form4-sales/internal/models"
)

// Querier runs a single search request. *Client implements it.
type Querier interface {
	Query(ctx context.Context, q Query) (*Page, error)
}

// Waiter paces requests. *pacing.Pacer implements it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// FetchOptions configures a Fetcher.
type FetchOptions struct {
	// PageSize is clamped to [1, MaxPageSize].
	PageSize int
	// Concurrency above 1 fetches the pages after the first in parallel.
	Concurrency int
	Pacer       Waiter
	// OnPage, when set, is called after each page is accepted.
	OnPage func(Progress)
}

// MaxPageSize is the largest page the endpoint serves.
const MaxPageSize = 50

// Progress describes the pagination state after a page.
type Progress struct {
	From    int
	Count   int
	Fetched int
	Total   int
}

// FetchResult holds every filing for a date, in API order.
type FetchResult struct {
	Date    time.Time
	Total   int
	Filings []models.RawFiling
	// Truncated is set when a page came back empty before Total was reached.
	Truncated bool
}

// Fetcher pages through all filings for a date.
type Fetcher struct {
	q    Querier
	opts FetchOptions
}

func NewFetcher(q Querier, opts FetchOptions) *Fetcher {
	if opts.PageSize < 1 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Fetcher{q: q, opts: opts}
}

// FetchDate retrieves every Form 4 filed on date. A reported total of zero
// yields an empty result and a nil error. Any error discards what was fetched.
func (f *Fetcher) FetchDate(ctx context.Context, date time.Time) (*FetchResult, error) {
	ctx, span := tracer.Start(ctx, "secapi.FetchDate")
	defer span.End()
	span.SetAttributes(attribute.String("secapi.date", date.Format(dateLayout)))

	log := zap.L().With(zap.String("date", date.Format(dateLayout)), zap.Int("page_size", f.opts.PageSize))

	first, err := f.page(ctx, date, 0)
	if err != nil {
		return nil, err
	}

	res := &FetchResult{Date: date, Total: first.Total.Value}
	log.Info("total filings reported", zap.Int("total", res.Total))
	if res.Total == 0 {
		return res, nil
	}
	if len(first.Transactions) == 0 {
		log.Warn("first page empty despite reported total; stopping")
		res.Truncated = true
		return res, nil
	}
	res.Filings = append(res.Filings, first.Transactions...)
	f.progress(0, len(first.Transactions), len(res.Filings), res.Total)

	if f.opts.Concurrency > 1 {
		err = f.fetchParallel(ctx, date, res)
	} else {
		err = f.fetchSequential(ctx, date, res)
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("secapi.fetched", len(res.Filings)))
	log.Info("pagination complete", zap.Int("fetched", len(res.Filings)), zap.Bool("truncated", res.Truncated))
	return res, nil
}

func (f *Fetcher) fetchSequential(ctx context.Context, date time.Time, res *FetchResult) error {
	for from := f.opts.PageSize; from < res.Total; from += f.opts.PageSize {
		page, err := f.page(ctx, date, from)
		if err != nil {
			return err
		}
		if len(page.Transactions) == 0 {
			zap.L().Warn("empty page before reported total; stopping",
				zap.Int("from", from),
				zap.Int("total", res.Total),
			)
			res.Truncated = true
			return nil
		}
		res.Filings = append(res.Filings, page.Transactions...)
		f.progress(from, len(page.Transactions), len(res.Filings), res.Total)
	}
	return nil
}

// fetchParallel requests the remaining offsets with at most Concurrency in
// flight. Each page lands in its offset's slot so the concatenation keeps API
// order regardless of completion order.
func (f *Fetcher) fetchParallel(ctx context.Context, date time.Time, res *FetchResult) error {
	var offsets []int
	for from := f.opts.PageSize; from < res.Total; from += f.opts.PageSize {
		offsets = append(offsets, from)
	}
	slots := make([][]models.RawFiling, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for i, from := range offsets {
		i, from := i, from
		g.Go(func() error {
			page, err := f.page(gctx, date, from)
			if err != nil {
				return err
			}
			slots[i] = page.Transactions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, filings := range slots {
		if len(filings) == 0 {
			zap.L().Warn("empty page before reported total; stopping",
				zap.Int("from", offsets[i]),
				zap.Int("total", res.Total),
			)
			res.Truncated = true
			return nil
		}
		res.Filings = append(res.Filings, filings...)
		f.progress(offsets[i], len(filings), len(res.Filings), res.Total)
	}
	return nil
}

func (f *Fetcher) page(ctx context.Context, date time.Time, from int) (*Page, error) {
	if f.opts.Pacer != nil {
		if err := f.opts.Pacer.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "secapi: pace page from=%d", from)
		}
	}
	zap.L().Debug("fetching page", zap.Int("from", from), zap.Int("size", f.opts.PageSize))
	return f.q.Query(ctx, FiledOnQuery(date, from, f.opts.PageSize))
}

func (f *Fetcher) progress(from, count, fetched, total int) {
	zap.L().Debug("page accepted",
		zap.Int("from", from),
		zap.Int("count", count),
		zap.Int("fetched", fetched),
		zap.Int("total", total),
	)
	if f.opts.OnPage != nil {
		f.opts.OnPage(Progress{From: from, Count: count, Fetched: fetched, Total: total})
	}
}
