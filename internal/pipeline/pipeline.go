// Package pipeline runs the load, fetch, write pass over a list of requests.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lsequote/internal/provider"
)

// QuoteWriter receives each successfully fetched quote.
type QuoteWriter interface {
	Write(q provider.StockQuote) error
}

//go:generate mockgen -package=pipeline_test -destination=mock_page_fetcher_test.go lsequote/internal/provider PageFetcher

// Result summarizes one run. Skipped holds the codes that produced no row,
// in input order.
type Result struct {
	Requested int
	Written   int
	Skipped   []string
}

// Reject records input rows that never reached the fetcher. Each is
// counted as requested and skipped, labelled by its input line.
func (r *Result) Reject(rows []*provider.ParseError) {
	for _, pe := range rows {
		r.Requested++
		r.Skipped = append(r.Skipped, fmt.Sprintf("line %d", pe.Line))
	}
}

// Run fetches each request in order and writes the quotes that succeed.
// Fetch errors are logged and the request is skipped. A write error or
// cancellation of ctx stops the run and is returned with the partial result.
func Run(ctx context.Context, reqs []provider.StockRequest, f provider.PageFetcher, w QuoteWriter, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{Requested: len(reqs)}

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rlog := log.With(
			zap.Int("row", i+1),
			zap.String("company", req.CompanyName),
			zap.String("code", req.StockCode),
		)
		rlog.Info("looking for latest stock price")

		start := time.Now()
		q, err := f.FetchQuote(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			rlog.Warn("skipping stock",
				zap.String("kind", provider.Kind(err)),
				zap.Error(err),
			)
			res.Skipped = append(res.Skipped, req.StockCode)
			continue
		}

		if err := w.Write(q); err != nil {
			return res, err
		}
		res.Written++
		rlog.Info("stock price saved",
			zap.String("price", q.Price.String()),
			zap.String("timestamp", q.Timestamp),
			zap.String("url", q.URL),
			zap.Duration("took", time.Since(start)),
		)
	}
	return res, nil
}
