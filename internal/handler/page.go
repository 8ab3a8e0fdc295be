package handler

import (
	"embed"
	"html/template"
	"net/http"
	"notebookeval/internal/model"
	"notebookeval/internal/report"
	"notebookeval/internal/service"
	"strings"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"pct": report.FormatPercentage,
}).ParseFS(templateFS, "templates/index.html"))

const genericError = "Error occurred while processing the request."

type pageData struct {
	Folder   string
	Listing  *service.Listing
	Selected *model.StudentFolder
	Report   *model.Report
	CSVURL   string
	Error    string
}

// Index walks the folder when one is given and shows the selected student's notebooks.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{Folder: strings.TrimSpace(r.URL.Query().Get("folder"))}
	if data.Folder == "" {
		h.render(w, r, http.StatusOK, data)
		return
	}

	listing, err := h.svc.ListStudents(r.Context(), data.Folder)
	if err != nil {
		logError(r.Context(), "failed to list students", err)
		data.Error = genericError
		h.render(w, r, mapErr(err), data)
		return
	}
	data.Listing = listing

	studentID := r.URL.Query().Get("student")
	if studentID == "" && len(listing.Students) > 0 {
		studentID = listing.Students[0].ID
	}
	if student, ok := listing.Find(studentID); ok {
		data.Selected = &student
	}
	h.render(w, r, http.StatusOK, data)
}

// EvaluatePage runs the report for the posted student and renders the table.
func (h *Handler) EvaluatePage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, pageData{Error: genericError})
		return
	}
	data := pageData{Folder: strings.TrimSpace(r.PostForm.Get("folder"))}

	rep, err := h.svc.GenerateReport(r.Context(), data.Folder, r.PostForm.Get("student"))
	if err != nil {
		logError(r.Context(), "failed to generate report", err)
		data.Error = genericError
		h.render(w, r, mapErr(err), data)
		return
	}
	data.Report = rep
	data.Selected = &rep.Student
	data.CSVURL = csvURL(rep.ID)
	h.render(w, r, http.StatusOK, data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf strings.Builder
	if err := indexTemplate.Execute(&buf, data); err != nil {
		logError(r.Context(), "failed to render page", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}
