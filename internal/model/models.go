package model

import (
	"math"
	"time"
)

// DefaultModifiedTime is used when Drive omits a file's modification time.
const DefaultModifiedTime = "N/A"

// MaxCriterionScore is the upper bound of each rubric criterion.
const MaxCriterionScore = 10

const criteriaCount = 4

// NotebookFile is a notebook as listed in Drive, before download.
type NotebookFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modified_time"`
}

// StudentFolder is a direct child folder of the root with at least one notebook.
type StudentFolder struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Notebooks      []NotebookFile `json:"notebooks"`
	SubfolderCount int            `json:"subfolder_count"`
}

type NotebookRef struct {
	Path         string `json:"path"`
	ModifiedTime string `json:"modified_time"`
}

// StudentRecord is a student whose notebooks have been copied to local scratch storage.
type StudentRecord struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Notebooks      []NotebookRef `json:"notebooks"`
	SubfolderCount int           `json:"subfolder_count"`
}

type RubricScore struct {
	Completeness   int `json:"completeness"`
	CodeQuality    int `json:"code_quality"`
	Documentation  int `json:"documentation"`
	Insightfulness int `json:"insightfulness"`
}

func (s RubricScore) Total() int {
	return s.Completeness + s.CodeQuality + s.Documentation + s.Insightfulness
}

// Percentage is Total over the maximum attainable score, rounded to two decimals.
func (s RubricScore) Percentage() float64 {
	pct := float64(s.Total()) / float64(criteriaCount*MaxCriterionScore) * 100
	return math.Round(pct*100) / 100
}

type FailureKind string

const (
	FailureNoJSON     FailureKind = "no_json"
	FailureGenerate   FailureKind = "generate"
	FailureDecode     FailureKind = "decode"
	FailureOutOfRange FailureKind = "out_of_range"
)

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Evaluation is the outcome of scoring one notebook: a score, or a failure with zero score.
type Evaluation struct {
	score   RubricScore
	failure *Failure
}

func Scored(score RubricScore) Evaluation {
	return Evaluation{score: score}
}

func Failed(kind FailureKind, message string) Evaluation {
	if message == "" {
		message = string(kind)
	}
	return Evaluation{failure: &Failure{Kind: kind, Message: message}}
}

// Score returns the zero score for failed evaluations.
func (e Evaluation) Score() RubricScore {
	if e.failure != nil {
		return RubricScore{}
	}
	return e.score
}

func (e Evaluation) Failure() (Failure, bool) {
	if e.failure == nil {
		return Failure{}, false
	}
	return *e.failure, true
}

func (e Evaluation) Notes() string {
	if e.failure == nil {
		return ""
	}
	return e.failure.Message
}

type ReportRow struct {
	StudentID      string
	Notebook       string
	LastModified   string
	Evaluation     Evaluation
	NotebookCount  int
	SubfolderCount int
}

func (r ReportRow) Percentage() float64 {
	return r.Evaluation.Score().Percentage()
}

type Report struct {
	ID          string
	FolderID    string
	Student     StudentFolder
	GeneratedAt time.Time
	Rows        []ReportRow
}

// FailedCount is the number of rows whose evaluation did not produce a score.
func (r *Report) FailedCount() int {
	n := 0
	for _, row := range r.Rows {
		if _, failed := row.Evaluation.Failure(); failed {
			n++
		}
	}
	return n
}

// AveragePercentage is the mean row percentage, rounded to two decimals.
func (r *Report) AveragePercentage() float64 {
	if len(r.Rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range r.Rows {
		sum += row.Percentage()
	}
	return math.Round(sum/float64(len(r.Rows))*100) / 100
}
