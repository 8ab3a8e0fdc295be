package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"notebookeval/internal/model"

	"github.com/go-chi/chi/v5"
)

type createReportRequest struct {
	Folder    string `json:"folder"`
	StudentID string `json:"student_id"`
}

type rowResponse struct {
	StudentID       string  `json:"student_id"`
	Notebook        string  `json:"notebook"`
	LastModified    string  `json:"last_modified"`
	Completeness    int     `json:"completeness"`
	CodeQuality     int     `json:"code_quality"`
	Documentation   int     `json:"documentation"`
	Insightfulness  int     `json:"insightfulness"`
	TotalScore      float64 `json:"total_score_pct"`
	Notes           string  `json:"notes"`
	FailureKind     string  `json:"failure_kind,omitempty"`
	NotebookCount   int     `json:"notebook_count"`
	TotalSubfolders int     `json:"total_subfolders"`
}

type reportResponse struct {
	ID          string              `json:"id"`
	FolderID    string              `json:"folder_id"`
	Student     model.StudentFolder `json:"student"`
	GeneratedAt string              `json:"generated_at"`
	Rows        []rowResponse       `json:"rows"`
	CSVURL      string              `json:"csv_url"`
}

func newReportResponse(r *model.Report) reportResponse {
	rows := make([]rowResponse, 0, len(r.Rows))
	for _, row := range r.Rows {
		score := row.Evaluation.Score()
		resp := rowResponse{
			StudentID:       row.StudentID,
			Notebook:        row.Notebook,
			LastModified:    row.LastModified,
			Completeness:    score.Completeness,
			CodeQuality:     score.CodeQuality,
			Documentation:   score.Documentation,
			Insightfulness:  score.Insightfulness,
			TotalScore:      row.Percentage(),
			Notes:           row.Evaluation.Notes(),
			NotebookCount:   row.NotebookCount,
			TotalSubfolders: row.SubfolderCount,
		}
		if f, failed := row.Evaluation.Failure(); failed {
			resp.FailureKind = string(f.Kind)
		}
		rows = append(rows, resp)
	}
	return reportResponse{
		ID:          r.ID,
		FolderID:    r.FolderID,
		Student:     r.Student,
		GeneratedAt: r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Rows:        rows,
		CSVURL:      csvURL(r.ID),
	}
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.ListStudents(r.Context(), r.URL.Query().Get("folder"))
	if err != nil {
		logError(r.Context(), "failed to list students", err)
		status := mapErr(err)
		writeErrorJSON(w, status, publicMessage(err, status))
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r.Context(), "failed to parse request body", err)
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.svc.GenerateReport(r.Context(), req.Folder, req.StudentID)
	if err != nil {
		logError(r.Context(), "failed to generate report", err)
		status := mapErr(err)
		writeErrorJSON(w, status, publicMessage(err, status))
		return
	}
	writeJSON(w, http.StatusCreated, newReportResponse(rep))
}

func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := h.svc.ReportCSV(r.Context(), id)
	if err != nil {
		status := mapErr(err)
		if status != http.StatusNotFound {
			logError(r.Context(), "failed to load report", err)
		}
		writeErrorJSON(w, status, http.StatusText(status))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": stored.Filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(stored.CSV)
}
