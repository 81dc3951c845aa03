package provider

import (
    "context"

    "github.com/shopspring/decimal"
)

// StockRequest is one input row: the company and its exchange code.
type StockRequest struct {
    CompanyName string
    StockCode   string
}

// StockQuote is the normalized shape returned by all fetchers.
// Price is a decimal to avoid float rounding of the displayed value.
type StockQuote struct {
    CompanyName string
    StockCode   string
    Price       decimal.Decimal
    Timestamp   string
    Source      string
    URL         string
}

// Page is a loaded document as seen by a PageLoader.
type Page struct {
    URL    string
    Status int
    HTML   string
}

// PageFetcher turns a request into a quote. Implementations return
// *NavigationError or *ParseError for per-record failures.
type PageFetcher interface {
    Name() string
    FetchQuote(ctx context.Context, req StockRequest) (StockQuote, error)
}

// PageLoader loads a URL and returns its rendered HTML.
type PageLoader interface {
    Load(ctx context.Context, url string) (Page, error)
}
