package export

import (
	"encoding/csv"
	"os"
)

// CSVWriter writes comma-separated rows, flushing and fsyncing after each.
type CSVWriter struct {
	file *os.File
	csv  *csv.Writer
}

// NewCSVWriter creates or truncates the file at path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{file: f, csv: csv.NewWriter(f)}, nil
}

func (w *CSVWriter) WriteRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *CSVWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
