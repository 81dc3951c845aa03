package csvio

import (
	"encoding/csv"
	"os"

	"lsequote/internal/provider"
)

// Header is the first row of every output file.
var Header = []string{ColCompanyName, ColStockCode, ColPrice, ColTimestamp}

// Writer appends quotes to an output file. Rows are flushed one at a time so
// an interrupted run leaves every row written so far on disk.
type Writer struct {
	path string
	f    *os.File
	w    *csv.Writer
}

// OpenWriter opens path for appending, creating it if needed. The header is
// written when the file is new or empty. A missing final newline in an
// existing file is added so new rows start on their own line.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &provider.FileError{Op: "open", Path: path, Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &provider.FileError{Op: "stat", Path: path, Err: err}
	}

	w := &Writer{path: path, f: f, w: csv.NewWriter(f)}
	if st.Size() == 0 {
		if err := w.writeRow(Header); err != nil {
			f.Close()
			return nil, err
		}
		return w, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		f.Close()
		return nil, &provider.FileError{Op: "read", Path: path, Err: err}
	}
	if last[0] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, &provider.FileError{Op: "write", Path: path, Err: err}
		}
	}
	return w, nil
}

// Write appends one quote row.
func (w *Writer) Write(q provider.StockQuote) error {
	return w.writeRow([]string{q.CompanyName, q.StockCode, q.Price.String(), q.Timestamp})
}

func (w *Writer) writeRow(row []string) error {
	if err := w.w.Write(row); err != nil {
		return &provider.FileError{Op: "write", Path: w.path, Err: err}
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return &provider.FileError{Op: "write", Path: w.path, Err: err}
	}
	return nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Close() error {
	w.w.Flush()
	werr := w.w.Error()
	if err := w.f.Close(); err != nil {
		return &provider.FileError{Op: "close", Path: w.path, Err: err}
	}
	if werr != nil {
		return &provider.FileError{Op: "write", Path: w.path, Err: werr}
	}
	return nil
}
