package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	colReviewerID   = "reviewerID"
	colASIN         = "asin"
	colReviewerName = "reviewerName"
	colReviewText   = "reviewText"
	colOverall      = "overall"
	colSummary      = "summary"
	colDayDiff      = "day_diff"
	colHelpfulYes   = "helpful_yes"
	colTotalVote    = "total_vote"
)

var requiredColumns = []string{colHelpfulYes, colTotalVote}

// CSVResult is the outcome of parsing a review export.
type CSVResult struct {
	Reviews []*Review `json:"-" yaml:"-"`
	Rows    int       `json:"rows" yaml:"rows"`
	Skipped int       `json:"skipped" yaml:"skipped"`
}

// ReadReviewsCSV parses a review export with a header row. Columns are
// matched by name; helpful_yes and total_vote are required, the rest are
// optional. Rows with empty vote counts are skipped.
func ReadReviewsCSV(r io.Reader) (*CSVResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV input")
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		// strip a UTF-8 BOM from the first column
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("CSV missing required column: %s", c)
		}
	}

	res := &CSVResult{Reviews: make([]*Review, 0)}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}
		res.Rows++

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		yes, total := get(colHelpfulYes), get(colTotalVote)
		if yes == "" || total == "" {
			res.Skipped++
			continue
		}

		rv := &Review{
			ASIN:         get(colASIN),
			ReviewerID:   get(colReviewerID),
			ReviewerName: get(colReviewerName),
			Text:         get(colReviewText),
			Summary:      get(colSummary),
			Seq:          int64(res.Rows),
		}

		if rv.ReviewerID == "" {
			rv.ReviewerID = fmt.Sprintf("row-%d", res.Rows)
		}

		if rv.HelpfulYes, err = parseCount(yes); err != nil {
			return nil, fmt.Errorf("CSV line %d, %s: %w", line, colHelpfulYes, err)
		}
		if rv.TotalVote, err = parseCount(total); err != nil {
			return nil, fmt.Errorf("CSV line %d, %s: %w", line, colTotalVote, err)
		}
		if rv.TotalVote < rv.HelpfulYes {
			return nil, fmt.Errorf("CSV line %d: %s (%d) exceeds %s (%d)",
				line, colHelpfulYes, rv.HelpfulYes, colTotalVote, rv.TotalVote)
		}

		if v := get(colOverall); v != "" {
			if rv.Overall, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("CSV line %d, %s: %w", line, colOverall, err)
			}
		}
		if v := get(colDayDiff); v != "" {
			if rv.DayDiff, err = parseCount(v); err != nil {
				return nil, fmt.Errorf("CSV line %d, %s: %w", line, colDayDiff, err)
			}
		}

		res.Reviews = append(res.Reviews, rv)
	}

	return res, nil
}

// parseCount accepts integers written as floats ("3.0"), as pandas exports them.
func parseCount(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count: %d", n)
		}
		return n, nil
	}

	fv, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", v, err)
	}
	if fv < 0 || fv != float64(int64(fv)) {
		return 0, fmt.Errorf("invalid count %q", v)
	}
	return int64(fv), nil
}
