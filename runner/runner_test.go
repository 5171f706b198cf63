package runner

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fedscrape/config"
	"github.com/use-agent/fedscrape/engine"
	"github.com/use-agent/fedscrape/export"
	"github.com/use-agent/fedscrape/mocks"
	"github.com/use-agent/fedscrape/models"
	"github.com/use-agent/fedscrape/scraper"
)

const base = "http://marketplace.test/products/"

func newTable(t *testing.T) (*export.Table, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := export.Create(path, config.FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func authSection(texts ...string) *mocks.MockSection {
	elems := make([]engine.Element, 0, len(texts))
	for _, text := range texts {
		el := new(mocks.MockElement)
		el.On("Text", mock.Anything).Return(text, nil)
		elems = append(elems, el)
	}
	section := new(mocks.MockSection)
	section.On("Paragraphs", mock.Anything).Return(elems, nil)
	return section
}

func newSession() *mocks.MockSession {
	s := new(mocks.MockSession)
	s.On("Name").Return("rod")
	s.On("Close").Return(nil)
	return s
}

func TestRun_MixedOutcomes(t *testing.T) {
	s := newSession()
	s.On("Navigate", mock.Anything, base+"P1").Return(nil)
	s.On("Navigate", mock.Anything, base).Return(nil)
	s.On("Navigate", mock.Anything, base+"ABC123").Return(errors.New("net::ERR_CONNECTION_RESET"))
	s.On("Reload", mock.Anything).Return(nil)
	s.On("Section", mock.Anything, scraper.AuthorizationSection).
		Return(authSection("FedRAMP Ready: 01/15/2021", "Independent Assessor: Acme Corp"), nil).Once()
	s.On("Section", mock.Anything, scraper.AuthorizationSection).
		Return(nil, engine.ErrSectionNotFound).Once()

	w, path := newTable(t)
	var progress bytes.Buffer
	r := New(s, scraper.NewExtractor(config.ScraperConfig{BaseURL: base}), w, Options{
		RunID:    "run-1",
		Output:   path,
		Progress: &progress,
	})

	sum, err := r.Run(context.Background(), []string{"P1", "", "ABC123"})
	require.NoError(t, err)

	rows := readRows(t, path)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Len(t, row, 7)
	}
	assert.Equal(t, []string{"P1", "01/15/2021", "", "", "", "", "Acme Corp"}, rows[1])
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "Error: Authorization Details section not found: section not found", rows[2][1])
	assert.Equal(t, []string{"ABC123", "Error - Navigation failed", "", "", "", "", ""}, rows[3])

	assert.Equal(t, &Summary{
		RunID:            "run-1",
		Engine:           "rod",
		Output:           path,
		Total:            3,
		Processed:        3,
		Succeeded:        1,
		NavigationFailed: 1,
		ExtractionFailed: 1,
		Elapsed:          sum.Elapsed,
	}, sum)

	out := progress.String()
	assert.Contains(t, out, "Found 3 IDs to process\n")
	assert.Contains(t, out, "[1/3] Processing ID: P1\n")
	assert.Contains(t, out, "Successfully scraped data for ID: P1\n")
	assert.Contains(t, out, "[2/3] Processing ID: \n")
	assert.Contains(t, out, "Error processing ID : ")
	assert.Contains(t, out, "Error navigating to ID ABC123: navigation failed")
	assert.Contains(t, out, "Scraping completed. Results saved to "+path+"\n")

	s.AssertNumberOfCalls(t, "Close", 1)
}

func TestRun_Empty(t *testing.T) {
	s := newSession()
	w, path := newTable(t)
	var progress bytes.Buffer

	sum, err := New(s, scraper.NewExtractor(config.ScraperConfig{BaseURL: base}), w,
		Options{Output: path, Progress: &progress}).Run(context.Background(), []string{})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Total)
	assert.Len(t, readRows(t, path), 1)
	assert.Contains(t, progress.String(), "Found 0 IDs to process")
	s.AssertNumberOfCalls(t, "Close", 1)
	s.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
}

func TestRun_InterruptedStopsBeforeNextID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSession()
	s.On("Navigate", mock.Anything, base+"P1").Return(nil).Run(func(mock.Arguments) { cancel() })
	s.On("Reload", mock.Anything).Return(nil)
	s.On("Section", mock.Anything, scraper.AuthorizationSection).Return(authSection("PMO Review: 03/01/2021"), nil)

	w, path := newTable(t)
	sum, err := New(s, scraper.NewExtractor(config.ScraperConfig{BaseURL: base}), w,
		Options{Output: path}).Run(ctx, []string{"P1", "P2", "P3"})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInterrupted, models.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sum.Interrupted)
	assert.Equal(t, 1, sum.Processed)

	// The row in progress is still written.
	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows[1][0])

	s.AssertNotCalled(t, "Navigate", mock.Anything, base+"P2")
	s.AssertNumberOfCalls(t, "Close", 1)
}

type brokenSink struct{}

func (brokenSink) WriteRow([]string) error { return errors.New("disk full") }
func (brokenSink) Close() error            { return nil }

func TestRun_WriteFailureIsFatal(t *testing.T) {
	s := newSession()
	s.On("Navigate", mock.Anything, mock.Anything).Return(errors.New("boom"))

	r := New(s, scraper.NewExtractor(config.ScraperConfig{BaseURL: base}), export.NewTable(brokenSink{}), Options{})
	sum, err := r.Run(context.Background(), []string{"P1", "P2"})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeIO, models.CodeOf(err))
	assert.Equal(t, 0, sum.Processed)
	s.AssertNumberOfCalls(t, "Navigate", 1)
	s.AssertNumberOfCalls(t, "Close", 1)
}

func TestRun_CloseErrorIsNotFatal(t *testing.T) {
	s := new(mocks.MockSession)
	s.On("Name").Return("http")
	s.On("Close").Return(errors.New("already closed"))

	w, _ := newTable(t)
	_, err := New(s, scraper.NewExtractor(config.ScraperConfig{}), w, Options{}).Run(context.Background(), nil)
	assert.NoError(t, err)
}

func TestSummary_Render(t *testing.T) {
	var buf bytes.Buffer
	(&Summary{
		RunID:            "abc",
		Engine:           "chromedp",
		Output:           "out.csv",
		Total:            4,
		Processed:        2,
		Succeeded:        1,
		NavigationFailed: 1,
		Interrupted:      true,
	}).Render(&buf)

	out := buf.String()
	for _, want := range []string{"abc", "chromedp", "out.csv", "Navigation failed", "INTERRUPTED"} {
		assert.Contains(t, out, want)
	}
}
