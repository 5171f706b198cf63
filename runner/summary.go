package runner

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary describes a finished (or interrupted) run.
type Summary struct {
	RunID            string        `json:"run_id"`
	Engine           string        `json:"engine"`
	Output           string        `json:"output"`
	Total            int           `json:"total"`
	Processed        int           `json:"processed"`
	Succeeded        int           `json:"succeeded"`
	NavigationFailed int           `json:"navigation_failed"`
	ExtractionFailed int           `json:"extraction_failed"`
	Interrupted      bool          `json:"interrupted"`
	Elapsed          time.Duration `json:"elapsed_ns"`
}

// Render writes the summary to w as a two-column table.
func (s *Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Value"})
	t.AppendRows([]table.Row{
		{"Run ID", s.RunID},
		{"Engine", s.Engine},
		{"Output", s.Output},
		{"IDs", s.Total},
		{"Processed", s.Processed},
		{"Succeeded", s.Succeeded},
		{"Navigation failed", s.NavigationFailed},
		{"Extraction failed", s.ExtractionFailed},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	})
	if s.Interrupted {
		t.AppendFooter(table.Row{"Status", "interrupted"})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
