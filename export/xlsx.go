package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet rows are written to.
const SheetName = "Authorizations"

// XLSXWriter keeps the workbook in memory and atomically replaces the file
// at path after every row, so the file on disk is always a complete
// workbook.
type XLSXWriter struct {
	path string
	book *excelize.File
	next int // 1-based row the next WriteRow fills
}

// NewXLSXWriter creates the file at path holding an empty workbook.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	book := excelize.NewFile()
	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		_ = book.Close()
		return nil, err
	}
	w := &XLSXWriter{path: path, book: book, next: 1}
	if err := w.save(); err != nil {
		_ = book.Close()
		return nil, err
	}
	return w, nil
}

func (w *XLSXWriter) WriteRow(row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		return err
	}
	if err := w.book.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("set row %d: %w", w.next, err)
	}
	w.next++
	return w.save()
}

// save writes the workbook to a temp file next to path, syncs it and
// renames it over path.
func (w *XLSXWriter) save() error {
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".fedscrape-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := w.book.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (w *XLSXWriter) Close() error {
	return w.book.Close()
}
