package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"notebookeval/internal/model"
	"strconv"
)

var Header = []string{
	"Student ID",
	"Notebook",
	"Last Modified",
	"Completeness",
	"Code Quality",
	"Documentation",
	"Insightfulness",
	"Total Score (%)",
	"Notes",
	"Notebook Count",
	"Total Subfolders",
}

func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Record(row)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func EncodeCSV(rows []model.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Record is the CSV cells of one row, in Header order.
func Record(row model.ReportRow) []string {
	score := row.Evaluation.Score()
	return []string{
		row.StudentID,
		row.Notebook,
		row.LastModified,
		strconv.Itoa(score.Completeness),
		strconv.Itoa(score.CodeQuality),
		strconv.Itoa(score.Documentation),
		strconv.Itoa(score.Insightfulness),
		FormatPercentage(row.Percentage()),
		row.Evaluation.Notes(),
		strconv.Itoa(row.NotebookCount),
		strconv.Itoa(row.SubfolderCount),
	}
}

func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
