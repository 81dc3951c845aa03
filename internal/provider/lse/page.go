package lse

import (
    "fmt"
    "regexp"
    "strings"

    "github.com/PuerkitoBio/goquery"
    "github.com/shopspring/decimal"

    "lsequote/internal/provider"
)

// Markup the quote page is scraped with. The site changes these without
// notice; re-check them against a live page when extraction starts failing.
const (
    PriceSelector     = "span.price-tag"
    TimestampSelector = "div.ticker-item.delay span.bold-font-weight"
    HeadingSelector   = "h1, h2, h3, h4, h5, h6, [role=heading]"
    LandmarkText      = "Company page"
)

var (
    // Optional currency sign, one number, optional pence suffix.
    priceRe = regexp.MustCompile(`^[£$€]?\s*([-+]?\d+(?:\.\d+)?)\s*(?:p|GBX)?$`)
    digitRe = regexp.MustCompile(`\d`)
)

// ParsePrice reads a displayed price such as "1,234.50" or "£12.3". The
// whole text must be a single number; "1 234.50" or "1.2.3" are rejected.
func ParsePrice(raw string) (decimal.Decimal, error) {
    s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
    m := priceRe.FindStringSubmatch(s)
    if m == nil {
        return decimal.Zero, fmt.Errorf("%w: %q", provider.ErrBadPrice, raw)
    }
    return decimal.NewFromString(m[1])
}

// extract pulls the price and "as of" timestamp out of a quote page.
func extract(doc *goquery.Document) (decimal.Decimal, string, error) {
    priceSel := doc.Find(PriceSelector).First()
    if priceSel.Length() == 0 {
        return decimal.Zero, "", &provider.ParseError{Field: "price", Err: provider.ErrElementMissing}
    }
    price, err := ParsePrice(priceSel.Text())
    if err != nil {
        return decimal.Zero, "", &provider.ParseError{Field: "price", Err: err}
    }

    tsSel := doc.Find(TimestampSelector).First()
    if tsSel.Length() == 0 {
        return decimal.Zero, "", &provider.ParseError{Field: "timestamp", Err: provider.ErrElementMissing}
    }
    ts := collapse(tsSel.Text())
    if !digitRe.MatchString(ts) {
        return decimal.Zero, "", &provider.ParseError{Field: "timestamp", Err: fmt.Errorf("no time in %q", ts)}
    }
    return price, ts, nil
}

// verify checks that the loaded page is the company page that was asked
// for: the "Company page" link is there and, when company is non-empty, a
// heading ends with the company name.
func verify(doc *goquery.Document, company string) error {
    landmark := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
        return strings.EqualFold(collapse(s.Text()), LandmarkText)
    })
    if landmark.Length() == 0 {
        return fmt.Errorf("%w: no %q link", provider.ErrWrongPage, LandmarkText)
    }
    if company == "" {
        return nil
    }

    re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(collapse(company)) + `$`)
    match := doc.Find(HeadingSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
        return re.MatchString(collapse(s.Text()))
    })
    if match.Length() == 0 {
        return fmt.Errorf("%w: no heading matches %q", provider.ErrWrongPage, company)
    }
    return nil
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }
