package handler

import (
	"context"
	"notebookeval/internal/model"
	"notebookeval/internal/service"

	"github.com/go-chi/chi/v5"
)

type ReportService interface {
	ListStudents(ctx context.Context, folderRef string) (*service.Listing, error)
	GenerateReport(ctx context.Context, folderRef, studentID string) (*model.Report, error)
	ReportCSV(ctx context.Context, reportID string) (*service.StoredReport, error)
}

type Handler struct {
	svc ReportService
}

func New(svc ReportService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/evaluate", h.EvaluatePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/students", h.ListStudents)
		r.Post("/reports", h.CreateReport)
		r.Get("/reports/{id}/csv", h.DownloadCSV)
	})
}

func csvURL(reportID string) string {
	return "/api/reports/" + reportID + "/csv"
}
