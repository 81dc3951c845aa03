// Package lse fetches delayed quotes from the London Stock Exchange
// company pages.
package lse

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "strings"

    "github.com/PuerkitoBio/goquery"
    "go.uber.org/zap"

    "lsequote/internal/provider"
)

const DefaultBaseURL = "https://www.londonstockexchange.com"

//go:generate mockgen -package=lse_test -destination=mock_page_loader_test.go lsequote/internal/provider PageLoader

type Config struct {
    Name    string
    BaseURL string
    // VerifyCompany requires a page heading ending with the company name.
    VerifyCompany bool
}

type Fetcher struct {
    cfg    Config
    loader provider.PageLoader
    log    *zap.Logger
}

func New(cfg Config, loader provider.PageLoader, log *zap.Logger) *Fetcher {
    if cfg.Name == "" { cfg.Name = "LSE" }
    if cfg.BaseURL == "" { cfg.BaseURL = DefaultBaseURL }
    cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
    if log == nil { log = zap.NewNop() }
    return &Fetcher{cfg: cfg, loader: loader, log: log.Named("lse")}
}

func (f *Fetcher) Name() string { return f.cfg.Name }

// QuoteURL builds the company page URL, e.g.
// https://www.londonstockexchange.com/stock/TSCO/tesco-plc/company-page
func (f *Fetcher) QuoteURL(req provider.StockRequest) string {
    return fmt.Sprintf("%s/stock/%s/%s/company-page",
        f.cfg.BaseURL, url.PathEscape(req.StockCode), url.PathEscape(Slug(req.CompanyName)))
}

// Slug lower-cases the company name and joins its words with dashes.
func Slug(name string) string {
    return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (f *Fetcher) FetchQuote(ctx context.Context, req provider.StockRequest) (provider.StockQuote, error) {
    u := f.QuoteURL(req)
    log := f.log.With(zap.String("code", req.StockCode), zap.String("url", u))
    log.Debug("loading company stock page")

    page, err := f.loader.Load(ctx, u)
    if err != nil {
        var ne *provider.NavigationError
        if errors.As(err, &ne) { return provider.StockQuote{}, err }
        return provider.StockQuote{}, &provider.NavigationError{URL: u, Err: err}
    }
    // Status 0 means the loader could not observe it.
    if page.Status != 0 && page.Status != http.StatusOK {
        return provider.StockQuote{}, &provider.NavigationError{URL: u, Status: page.Status, Err: provider.ErrBadStatus}
    }

    doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
    if err != nil {
        return provider.StockQuote{}, &provider.ParseError{Source: u, Err: err}
    }

    company := ""
    if f.cfg.VerifyCompany { company = req.CompanyName }
    if err := verify(doc, company); err != nil {
        return provider.StockQuote{}, &provider.NavigationError{URL: u, Status: page.Status, Err: err}
    }
    log.Debug("stock page loaded")

    price, ts, err := extract(doc)
    if err != nil {
        var pe *provider.ParseError
        if errors.As(err, &pe) { pe.Source = u }
        return provider.StockQuote{}, err
    }

    return provider.StockQuote{
        CompanyName: req.CompanyName,
        StockCode:   req.StockCode,
        Price:       price,
        Timestamp:   ts,
        Source:      f.cfg.Name,
        URL:         u,
    }, nil
}
