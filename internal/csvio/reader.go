// Package csvio reads stock requests from, and appends stock quotes to, CSV files.
package csvio

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"lsequote/internal/provider"
)

const (
	ColCompanyName = "company name"
	ColStockCode   = "stock code"
	ColPrice       = "price"
	ColTimestamp   = "timestamp"
)

// ReadRequests loads the input table at path. The header must contain the
// company name and stock code columns; any other columns are ignored.
// Data rows missing a name or code are returned in rejected, in input
// order, and do not fail the load.
func ReadRequests(path string) (reqs []provider.StockRequest, rejected []*provider.ParseError, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &provider.FileError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	return ParseRequests(f, path)
}

// ParseRequests reads requests from r; name is used in errors.
func ParseRequests(r io.Reader, name string) ([]provider.StockRequest, []*provider.ParseError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &provider.ParseError{Source: name, Err: provider.ErrEmptyInput}
	}
	if err != nil {
		return nil, nil, readErr(name, err)
	}

	nameIdx, codeIdx := -1, -1
	for i, h := range header {
		switch normalizeHeader(h, i == 0) {
		case ColCompanyName:
			if nameIdx < 0 { nameIdx = i }
		case ColStockCode:
			if codeIdx < 0 { codeIdx = i }
		}
	}
	if nameIdx < 0 {
		return nil, nil, &provider.ParseError{Source: name, Line: 1, Field: ColCompanyName, Err: provider.ErrMissingColumn}
	}
	if codeIdx < 0 {
		return nil, nil, &provider.ParseError{Source: name, Line: 1, Field: ColStockCode, Err: provider.ErrMissingColumn}
	}

	var (
		out      []provider.StockRequest
		rejected []*provider.ParseError
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, readErr(name, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		req := provider.StockRequest{
			CompanyName: field(rec, nameIdx),
			StockCode:   field(rec, codeIdx),
		}
		switch {
		case req.CompanyName == "":
			rejected = append(rejected, &provider.ParseError{Source: name, Line: line, Field: ColCompanyName, Err: provider.ErrMissingField})
		case req.StockCode == "":
			rejected = append(rejected, &provider.ParseError{Source: name, Line: line, Field: ColStockCode, Err: provider.ErrMissingField})
		default:
			out = append(out, req)
		}
	}
	return out, rejected, nil
}

func readErr(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &provider.ParseError{Source: name, Line: pe.Line, Err: pe.Err}
	}
	return &provider.FileError{Op: "read", Path: name, Err: err}
}

func normalizeHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
