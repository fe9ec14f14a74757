package secapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/form4-sales/internal/models"
)

// fakeQuerier serves total filings named f-0..f-(n-1), optionally truncated.
type fakeQuerier struct {
	mu      sync.Mutex
	total   int
	served  int // number of filings that actually exist
	calls   []int
	failAt  int // from offset that fails; -1 disables
	failErr error
	delay   func(from int) time.Duration
}

func newFake(total int) *fakeQuerier {
	return &fakeQuerier{total: total, served: total, failAt: -1}
}

func (f *fakeQuerier) Query(ctx context.Context, q Query) (*Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q.From)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(q.From)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if q.From == f.failAt {
		return nil, f.failErr
	}
	page := &Page{Total: Total{Value: f.total, Relation: "eq"}}
	for i := q.From; i < q.From+q.Size && i < f.served; i++ {
		page.Transactions = append(page.Transactions, models.RawFiling{AccessionNo: models.Value(fmt.Sprintf("f-%d", i))})
	}
	return page, nil
}

type countingPacer struct{ n atomic.Int32 }

func (p *countingPacer) Wait(context.Context) error {
	p.n.Add(1)
	return nil
}

func accessions(filings []models.RawFiling) []string {
	out := make([]string, len(filings))
	for i, f := range filings {
		out[i] = f.AccessionNo.String()
	}
	return out
}

func TestFetchDatePaginates(t *testing.T) {
	q := newFake(7)
	pacer := &countingPacer{}
	var progress []Progress
	f := NewFetcher(q, FetchOptions{PageSize: 3, Pacer: pacer, OnPage: func(p Progress) { progress = append(progress, p) }})

	res, err := f.FetchDate(context.Background(), testDate)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Total)
	assert.False(t, res.Truncated)
	assert.Equal(t, []int{0, 3, 6}, q.calls)
	assert.Equal(t, []string{"f-0", "f-1", "f-2", "f-3", "f-4", "f-5", "f-6"}, accessions(res.Filings))
	assert.Equal(t, int32(3), pacer.n.Load())
	require.Len(t, progress, 3)
	assert.Equal(t, Progress{From: 6, Count: 1, Fetched: 7, Total: 7}, progress[2])
}

func TestFetchDateZeroTotal(t *testing.T) {
	q := newFake(0)
	res, err := NewFetcher(q, FetchOptions{PageSize: 50}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Filings)
	assert.Equal(t, []int{0}, q.calls)
}

func TestFetchDateEmptyPageStopsEarly(t *testing.T) {
	q := newFake(10)
	q.served = 4

	res, err := NewFetcher(q, FetchOptions{PageSize: 2}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Filings, 4)
	assert.Equal(t, []int{0, 2, 4}, q.calls)
}

func TestFetchDateFirstPageEmpty(t *testing.T) {
	q := newFake(5)
	q.served = 0

	res, err := NewFetcher(q, FetchOptions{PageSize: 2}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Empty(t, res.Filings)
}

func TestFetchDateErrorDiscardsResult(t *testing.T) {
	q := newFake(10)
	q.failAt = 4
	q.failErr = &APIError{StatusCode: 200, Payload: []byte(`"boom"`)}

	res, err := NewFetcher(q, FetchOptions{PageSize: 2}).FetchDate(context.Background(), testDate)
	assert.Nil(t, res)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []int{0, 2, 4}, q.calls, "no retry after a failure")
}

func TestFetchDateClampsPageSize(t *testing.T) {
	q := newFake(120)
	res, err := NewFetcher(q, FetchOptions{PageSize: 500}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.Len(t, res.Filings, 120)
	assert.Equal(t, []int{0, 50, 100}, q.calls)
}

func TestFetchDateParallelKeepsOrder(t *testing.T) {
	q := newFake(10)
	// Later offsets finish first.
	q.delay = func(from int) time.Duration { return time.Duration(10-from) * 3 * time.Millisecond }

	res, err := NewFetcher(q, FetchOptions{PageSize: 2, Concurrency: 3}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"f-0", "f-1", "f-2", "f-3", "f-4", "f-5", "f-6", "f-7", "f-8", "f-9"}, accessions(res.Filings))
	assert.Equal(t, 0, q.calls[0], "first page is fetched alone")
	assert.ElementsMatch(t, []int{0, 2, 4, 6, 8}, q.calls)
}

func TestFetchDateParallelError(t *testing.T) {
	q := newFake(10)
	q.failAt = 6
	q.failErr = &TransportError{Err: errors.New("connection reset by peer")}

	res, err := NewFetcher(q, FetchOptions{PageSize: 2, Concurrency: 4}).FetchDate(context.Background(), testDate)
	assert.Nil(t, res)
	assert.True(t, IsTransport(err))
}

func TestFetchDateParallelTruncates(t *testing.T) {
	q := newFake(10)
	q.served = 5

	res, err := NewFetcher(q, FetchOptions{PageSize: 2, Concurrency: 4}).FetchDate(context.Background(), testDate)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, []string{"f-0", "f-1", "f-2", "f-3", "f-4"}, accessions(res.Filings))
}
