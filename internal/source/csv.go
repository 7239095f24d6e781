// Package source provides team sources that read the lottery points list
// as CSV (name,points) from a file, a URL or an S3 object.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// ParseCSV reads name,points rows. Blank lines are ignored, a first row whose
// points column is not numeric is treated as a header, and any other
// malformed row is skipped with a warning.
func ParseCSV(r io.Reader) ([]models.TeamRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.LazyQuotes = true

	records := []models.TeamRecord{}
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.Warn("Skipping unparseable team row", "line", parseErr.Line, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read team CSV: %w", err)
		}

		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			logger.Warn("Skipping malformed team row", "line", line, "row", row)
			continue
		}

		name := strings.TrimSpace(row[0])
		points, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if line == 1 {
				logger.Debug("Treating first team row as header", "row", row)
				continue
			}
			logger.Warn("Skipping team row with invalid points", "line", line, "team", name, "error", err)
			continue
		}

		records = append(records, models.TeamRecord{Name: name, Points: points})
	}

	return records, nil
}

// FileSource reads teams from a CSV file on disk
type FileSource struct {
	Path string
}

// NewFileSource creates a file team source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// LoadTeams opens and parses the CSV file
func (s *FileSource) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open team file %s: %w", s.Path, err)
	}
	defer f.Close()

	records, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	logger.Debug("Loaded teams from file", "path", s.Path, "teams", len(records))
	return records, nil
}
