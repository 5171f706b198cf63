// Package input reads the identifier list a run works through.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/use-agent/fedscrape/models"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// LoadIdentifiers returns the lines of the file at path in file order, one
// identifier per line. Empty lines are kept. Lines that are not valid UTF-8
// are dropped. Only a file that cannot be opened or read fails the load.
func LoadIdentifiers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeIO, "cannot open input file", err)
	}
	defer f.Close()

	ids, err := readIdentifiers(f)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeIO, "cannot read input file", err)
	}
	return ids, nil
}

func readIdentifiers(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	ids := []string{}
	lineNo := 0

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			if lineNo == 1 {
				line = bytes.TrimPrefix(line, bom)
			}
			if utf8.Valid(line) {
				ids = append(ids, string(line))
			} else {
				slog.Debug("skipping undecodable input line", "line", lineNo)
			}
		}
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
