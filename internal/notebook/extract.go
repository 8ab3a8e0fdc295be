package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const cellSeparator = "\n\n"

// source is a cell's text, stored either as one string or as a list of lines.
type source string

func (s *source) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = source(str)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source is neither a string nor a list of strings")
	}
	*s = source(strings.Join(lines, ""))
	return nil
}

type cell struct {
	CellType string  `json:"cell_type"`
	Source   *source `json:"source"`
	// v3 code cells keep their text in "input".
	Input *source `json:"input"`
}

func (c cell) text() string {
	switch {
	case c.Source != nil:
		return string(*c.Source)
	case c.Input != nil:
		return string(*c.Input)
	}
	return ""
}

type document struct {
	NBFormat   int    `json:"nbformat"`
	Cells      []cell `json:"cells"`
	Worksheets []struct {
		Cells []cell `json:"cells"`
	} `json:"worksheets"`
}

func (d document) allCells() []cell {
	if d.NBFormat >= 4 || len(d.Worksheets) == 0 {
		return d.Cells
	}
	var cells []cell
	for _, ws := range d.Worksheets {
		cells = append(cells, ws.Cells...)
	}
	return cells
}

// Extract returns the concatenated code and markdown text of the notebook at path.
// Read and parse failures come back as a descriptive message instead of an error,
// so the caller can still send something to the evaluator.
func Extract(path string) string {
	text, err := Read(path)
	if err != nil {
		return fmt.Sprintf("Error reading notebook: %v", err)
	}
	return text
}

// Read is Extract with an explicit error.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path points into the request's scratch dir
	if err != nil {
		return "", err
	}
	return Parse(data)
}

func Parse(data []byte) (string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("invalid notebook json: %w", err)
	}
	if doc.Cells == nil && doc.Worksheets == nil {
		return "", errors.New("notebook has no cells")
	}

	parts := make([]string, 0, len(doc.Cells))
	for _, c := range doc.allCells() {
		switch c.CellType {
		case "code", "markdown":
			parts = append(parts, c.text())
		}
	}
	return strings.Join(parts, cellSeparator), nil
}
