package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"notebookeval/internal/errdefs"
	"notebookeval/internal/model"
	"notebookeval/internal/service"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ── helpers ─────────────────────────────────────────────────────────

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ListStudents(ctx context.Context, folderRef string) (*service.Listing, error) {
	args := m.Called(ctx, folderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Listing), args.Error(1)
}

func (m *MockReportService) GenerateReport(ctx context.Context, folderRef, studentID string) (*model.Report, error) {
	args := m.Called(ctx, folderRef, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportService) ReportCSV(ctx context.Context, reportID string) (*service.StoredReport, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StoredReport), args.Error(1)
}

func newRouter(svc ReportService) http.Handler {
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func alice() model.StudentFolder {
	return model.StudentFolder{
		ID:   "s1",
		Name: "alice",
		Notebooks: []model.NotebookFile{
			{ID: "n1", Name: "hw1.ipynb", ModifiedTime: "2024-03-01T10:00:00Z"},
			{ID: "n2", Name: "hw2.ipynb", ModifiedTime: "N/A"},
		},
		SubfolderCount: 1,
	}
}

func testListing() *service.Listing {
	return &service.Listing{
		FolderID: "root",
		Students: []model.StudentFolder{alice(), {ID: "s3", Name: "carol", Notebooks: []model.NotebookFile{{ID: "n3", Name: "x.ipynb"}}}},
	}
}

func testReport() *model.Report {
	return &model.Report{
		ID:          "rep-1",
		FolderID:    "root",
		Student:     alice(),
		GeneratedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Rows: []model.ReportRow{
			{
				StudentID: "alice", Notebook: "alice_hw1.ipynb", LastModified: "2024-03-01T10:00:00Z",
				Evaluation:    model.Scored(model.RubricScore{Completeness: 8, CodeQuality: 7, Documentation: 9, Insightfulness: 8}),
				NotebookCount: 2, SubfolderCount: 1,
			},
			{
				StudentID: "alice", Notebook: "alice_hw2.ipynb", LastModified: "N/A",
				Evaluation:    model.Failed(model.FailureNoJSON, "No valid JSON found"),
				NotebookCount: 2, SubfolderCount: 1,
			},
		},
	}
}

// ── mapErr ──────────────────────────────────────────────────────────

func TestMapErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"Validation", fmt.Errorf("x: %w", errdefs.ErrValidation), http.StatusBadRequest},
		{"NotFound", fmt.Errorf("x: %w", errdefs.ErrNotFound), http.StatusNotFound},
		{"Upstream", fmt.Errorf("x: %w", errdefs.ErrUpstream), http.StatusBadGateway},
		{"Unknown", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, mapErr(tc.err))
		})
	}
}

func TestWriteErrorJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeErrorJSON(w, http.StatusBadRequest, "test error")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test error", body["error"])
}

// ── JSON API ────────────────────────────────────────────────────────

func TestListStudentsAPI(t *testing.T) {
	svc := new(MockReportService)
	svc.On("ListStudents", mock.Anything, "https://drive.google.com/drive/folders/root").Return(testListing(), nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/students?folder="+url.QueryEscape("https://drive.google.com/drive/folders/root"), nil)
	newRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body service.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "root", body.FolderID)
	assert.Len(t, body.Students, 2)
	assert.Equal(t, 1, body.Students[0].SubfolderCount)
}

func TestListStudentsAPI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"Validation", fmt.Errorf("%w: folder link or id is required", errdefs.ErrValidation), http.StatusBadRequest, "validation error: folder link or id is required"},
		{"Upstream", fmt.Errorf("%w: secret detail", errdefs.ErrUpstream), http.StatusBadGateway, "Bad Gateway"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockReportService)
			svc.On("ListStudents", mock.Anything, mock.Anything).Return(nil, tc.err)

			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.message, body["error"])
		})
	}
}

func TestCreateReportAPI(t *testing.T) {
	svc := new(MockReportService)
	svc.On("GenerateReport", mock.Anything, "root", "s1").Return(testReport(), nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"folder":"root","student_id":"s1"}`))
	newRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	var body reportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rep-1", body.ID)
	assert.Equal(t, "/api/reports/rep-1/csv", body.CSVURL)
	assert.Equal(t, "2024-05-06T07:08:09Z", body.GeneratedAt)
	require.Len(t, body.Rows, 2)
	assert.InDelta(t, 80.0, body.Rows[0].TotalScore, 1e-9)
	assert.Empty(t, body.Rows[0].FailureKind)
	assert.Equal(t, "no_json", body.Rows[1].FailureKind)
	assert.Equal(t, "No valid JSON found", body.Rows[1].Notes)
	assert.Zero(t, body.Rows[1].Completeness)
	assert.Equal(t, 2, body.Rows[1].NotebookCount)
	assert.Equal(t, 1, body.Rows[1].TotalSubfolders)
}

func TestCreateReportAPI_BadBody(t *testing.T) {
	svc := new(MockReportService)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReportAPI_UnknownStudent(t *testing.T) {
	svc := new(MockReportService)
	svc.On("GenerateReport", mock.Anything, "root", "zz").Return(nil, fmt.Errorf("student folder zz: %w", errdefs.ErrNotFound))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"folder":"root","student_id":"zz"}`))
	newRouter(svc).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadCSV(t *testing.T) {
	svc := new(MockReportService)
	svc.On("ReportCSV", mock.Anything, "rep-1").Return(&service.StoredReport{Filename: "alice_report.csv", CSV: []byte("a,b\n")}, nil)
	svc.On("ReportCSV", mock.Anything, "gone").Return(nil, fmt.Errorf("report gone: %w", errdefs.ErrNotFound))

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/rep-1/csv", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=alice_report.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())

	w = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/gone/csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── HTML pages ──────────────────────────────────────────────────────

func TestIndex_NoFolder(t *testing.T) {
	svc := new(MockReportService)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Paste a Google Drive folder link or ID to begin.")
	svc.AssertNotCalled(t, "ListStudents", mock.Anything, mock.Anything)
}

func TestIndex_SelectsStudent(t *testing.T) {
	svc := new(MockReportService)
	svc.On("ListStudents", mock.Anything, "root").Return(testListing(), nil)

	t.Run("DefaultsToFirst", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?folder=root", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "2 notebook(s) found for <strong>alice</strong>")
		assert.Contains(t, body, "1 subfolder(s) found inside <strong>alice</strong>")
		assert.Contains(t, body, "hw1.ipynb")
		assert.Contains(t, body, `<option value="s1" selected>alice</option>`)
		assert.Contains(t, body, "Evaluate Selected Student")
	})

	t.Run("Explicit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?folder=root&student=s3", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "1 notebook(s) found for <strong>carol</strong>")
	})
}

func TestIndex_WalkerFailure(t *testing.T) {
	svc := new(MockReportService)
	svc.On("ListStudents", mock.Anything, "root").Return(nil, fmt.Errorf("%w: quota", errdefs.ErrUpstream))

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?folder=root", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), genericError)
	assert.NotContains(t, w.Body.String(), "quota")
}

func TestEvaluatePage(t *testing.T) {
	svc := new(MockReportService)
	svc.On("GenerateReport", mock.Anything, "root", "s1").Return(testReport(), nil)

	form := url.Values{"folder": {"root"}, "student": {"s1"}}
	r := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<td>80.00</td>")
	assert.Contains(t, body, "No valid JSON found")
	assert.Contains(t, body, `href="/api/reports/rep-1/csv"`)
	assert.NotContains(t, body, "Evaluate Selected Student")
}

func TestEvaluatePage_Error(t *testing.T) {
	svc := new(MockReportService)
	svc.On("GenerateReport", mock.Anything, "root", "s1").Return(nil, errors.New("disk full"))

	form := url.Values{"folder": {"root"}, "student": {"s1"}}
	r := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), genericError)
}
