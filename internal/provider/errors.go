package provider

import (
    "errors"
    "fmt"
)

var (
    ErrEmptyInput     = errors.New("empty input")
    ErrMissingColumn  = errors.New("missing column")
    ErrMissingField   = errors.New("missing field")
    ErrElementMissing = errors.New("element not found")
    ErrBadStatus      = errors.New("unexpected status")
    ErrWrongPage      = errors.New("wrong page")
    ErrBadPrice       = errors.New("invalid price")
)

// FileError reports an input or output path that could not be used.
type FileError struct {
    Op   string
    Path string
    Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// ParseError reports malformed CSV content or page content that could not
// be interpreted. Line is 1-based and only set for CSV input.
type ParseError struct {
    Source string
    Line   int
    Field  string
    Err    error
}

func (e *ParseError) Error() string {
    msg := "parse " + e.Source
    if e.Line > 0 { msg += fmt.Sprintf(":%d", e.Line) }
    if e.Field != "" { msg += " " + e.Field }
    return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// NavigationError reports a page that could not be reached, timed out, or
// was not the page that was asked for.
type NavigationError struct {
    URL    string
    Status int
    Err    error
}

func (e *NavigationError) Error() string {
    if e.Status != 0 {
        return fmt.Sprintf("navigate %s (status %d): %v", e.URL, e.Status, e.Err)
    }
    return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Kind names the error category for logging.
func Kind(err error) string {
    var fe *FileError
    var pe *ParseError
    var ne *NavigationError
    switch {
    case errors.As(err, &ne):
        return "navigation"
    case errors.As(err, &pe):
        return "parse"
    case errors.As(err, &fe):
        return "file"
    }
    return "unknown"
}
