// Package export writes authorization rows to a CSV or XLSX table, making
// every row durable before the next one is written.
package export

import (
	"fmt"

	"github.com/use-agent/fedscrape/config"
	"github.com/use-agent/fedscrape/models"
)

// NavigationErrorMarker fills the second column when a page could not be
// loaded.
const NavigationErrorMarker = "Error - Navigation failed"

// columns defines the header row (7 columns).
var columns = []string{
	"ID",
	"FedRAMP Ready",
	"Authorizing Entity Review",
	"PMO Review",
	"FedRAMP Authorized",
	"Annual Assessment",
	"Independent Assessor",
}

// Columns returns a copy of the header row.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Writer appends result rows to an output table.
type Writer interface {
	WriteHeader() error
	WriteRecord(rec *models.AuthorizationRecord) error
	WriteNavigationError(id string) error
	WriteError(id string, err error) error
	Close() error
}

// Sink is a row-oriented file. WriteRow returns only once the row is
// durable on disk.
type Sink interface {
	WriteRow(row []string) error
	Close() error
}

// Table renders records into rows and hands them to a Sink.
type Table struct {
	sink Sink
	rows int
}

// NewTable wraps sink.
func NewTable(sink Sink) *Table {
	return &Table{sink: sink}
}

// Create creates (or truncates) the output file at path and returns a
// Table writing to it in the given format ("csv" or "xlsx").
func Create(path, format string) (*Table, error) {
	var (
		sink Sink
		err  error
	)
	switch format {
	case config.FormatCSV, "":
		sink, err = NewCSVWriter(path)
	case config.FormatXLSX:
		sink, err = NewXLSXWriter(path)
	default:
		return nil, models.NewScrapeError(models.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported output format %q", format), nil)
	}
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeIO, "cannot create output file", err)
	}
	return NewTable(sink), nil
}

// WriteHeader writes the 7-column header row.
func (t *Table) WriteHeader() error {
	return t.write(Columns())
}

// WriteRecord writes rec; absent fields become empty cells.
func (t *Table) WriteRecord(rec *models.AuthorizationRecord) error {
	return t.write(recordToRow(rec))
}

// WriteNavigationError writes the placeholder row for a page that could not
// be loaded.
func (t *Table) WriteNavigationError(id string) error {
	return t.write(errorRow(id, NavigationErrorMarker))
}

// WriteError writes the placeholder row for any other failure.
func (t *Table) WriteError(id string, err error) error {
	return t.write(errorRow(id, "Error: "+models.Describe(err)))
}

// Rows returns the number of rows written so far, header included.
func (t *Table) Rows() int {
	return t.rows
}

func (t *Table) Close() error {
	return t.sink.Close()
}

func (t *Table) write(row []string) error {
	if err := t.sink.WriteRow(row); err != nil {
		return models.NewScrapeError(models.ErrCodeIO, "cannot write output row", err)
	}
	t.rows++
	return nil
}

func recordToRow(rec *models.AuthorizationRecord) []string {
	return []string{
		rec.ID,
		rec.FedRAMPReady,
		rec.AuthorizingEntityReview,
		rec.PMOReview,
		rec.FedRAMPAuthorized,
		rec.AnnualAssessment,
		rec.IndependentAssessor,
	}
}

func errorRow(id, description string) []string {
	row := make([]string, len(columns))
	row[0] = id
	row[1] = description
	return row
}
