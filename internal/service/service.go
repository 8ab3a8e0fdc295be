package service

import (
	"context"
	"encoding/json"
	"fmt"
	"notebookeval/internal/cache"
	"notebookeval/internal/ctxdata"
	"notebookeval/internal/drive"
	"notebookeval/internal/errdefs"
	"notebookeval/internal/events"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"
	"notebookeval/internal/report"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FilesFactory opens a freshly authenticated Drive client for one request.
type FilesFactory func(ctx context.Context) (drive.Files, error)

type Archiver interface {
	Store(ctx context.Context, r *model.Report, csv []byte) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.ReportGenerated) error
}

type Options struct {
	ScratchDir string
	ReportTTL  time.Duration
	// Archive and Events are optional.
	Archive Archiver
	Events  Publisher
}

type Service struct {
	newFiles   FilesFactory
	builder    *report.Builder
	store      cache.Store
	archive    Archiver
	events     Publisher
	scratchDir string
	reportTTL  time.Duration
	now        func() time.Time
}

func New(newFiles FilesFactory, builder *report.Builder, store cache.Store, opts Options) *Service {
	return &Service{
		newFiles:   newFiles,
		builder:    builder,
		store:      store,
		archive:    opts.Archive,
		events:     opts.Events,
		scratchDir: opts.ScratchDir,
		reportTTL:  opts.ReportTTL,
		now:        time.Now,
	}
}

type Listing struct {
	FolderID string                `json:"folder_id"`
	Students []model.StudentFolder `json:"students"`
}

// Find returns the listed student with the given folder id.
func (l *Listing) Find(studentID string) (model.StudentFolder, bool) {
	for _, s := range l.Students {
		if s.ID == studentID {
			return s, true
		}
	}
	return model.StudentFolder{}, false
}

// StoredReport is what the report store keeps for CSV downloads.
type StoredReport struct {
	Filename string `json:"filename"`
	CSV      []byte `json:"csv"`
}

func (s *Service) ListStudents(ctx context.Context, folderRef string) (*Listing, error) {
	folderID, err := parseFolder(folderRef)
	if err != nil {
		return nil, err
	}
	ctx = ctxdata.WithFolderID(ctx, folderID)

	files, err := s.newFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("open drive: %w", err)
	}
	students, err := drive.NewWalker(files).Students(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Info(ctx, "students listed", zap.Int("students", len(students)))
	}
	return &Listing{FolderID: folderID, Students: students}, nil
}

// GenerateReport downloads and evaluates every notebook of one student. The
// scratch directory lives only for the duration of the call.
func (s *Service) GenerateReport(ctx context.Context, folderRef, studentID string) (*model.Report, error) {
	folderID, err := parseFolder(folderRef)
	if err != nil {
		return nil, err
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student is required", errdefs.ErrValidation)
	}
	ctx = ctxdata.WithFolderID(ctx, folderID)

	files, err := s.newFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("open drive: %w", err)
	}
	student, err := drive.NewWalker(files).Student(ctx, folderID, studentID)
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp(s.scratchDir, "notebooks-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Error(ctx, "failed to remove scratch dir", zap.String("dir", scratch), zap.Error(err))
			}
		}
	}()

	record, err := drive.NewDownloader(files).Download(ctx, student, scratch)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	rep := &model.Report{
		ID:          id.String(),
		FolderID:    folderID,
		Student:     student,
		GeneratedAt: s.now().UTC(),
		Rows:        s.builder.Build(ctx, []model.StudentRecord{record}),
	}

	csv, err := report.EncodeCSV(rep.Rows)
	if err != nil {
		return nil, err
	}
	s.keep(ctx, rep, csv)
	return rep, nil
}

// keep saves, archives and announces a finished report. None of these steps
// invalidates the report itself, so failures are only logged.
func (s *Service) keep(ctx context.Context, rep *model.Report, csv []byte) {
	logger, hasLogger := logging.GetFromContext(ctx)

	stored, err := json.Marshal(StoredReport{Filename: rep.Student.Name + "_report.csv", CSV: csv})
	if err == nil {
		err = s.store.Set(ctx, rep.ID, stored, s.reportTTL)
	}
	if err != nil && hasLogger {
		logger.Error(ctx, "failed to store report", zap.String("report_id", rep.ID), zap.Error(err))
	}

	var archiveKey string
	if s.archive != nil {
		archiveKey, err = s.archive.Store(ctx, rep, csv)
		if err != nil && hasLogger {
			logger.Warn(ctx, "failed to archive report", zap.String("report_id", rep.ID), zap.Error(err))
		}
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewReportGenerated(rep, archiveKey)); err != nil && hasLogger {
			logger.Warn(ctx, "failed to publish report event", zap.String("report_id", rep.ID), zap.Error(err))
		}
	}

	if hasLogger {
		logger.Info(ctx, "report generated",
			zap.String("report_id", rep.ID),
			zap.String("student", rep.Student.Name),
			zap.Int("rows", len(rep.Rows)),
			zap.Int("failed", rep.FailedCount()),
		)
	}
}

func (s *Service) ReportCSV(ctx context.Context, reportID string) (*StoredReport, error) {
	data, ok := s.store.Get(ctx, reportID)
	if !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, errdefs.ErrNotFound)
	}
	var stored StoredReport
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode stored report %s: %w", reportID, err)
	}
	return &stored, nil
}

func parseFolder(folderRef string) (string, error) {
	folderID := drive.FolderID(folderRef)
	if folderID == "" {
		return "", fmt.Errorf("%w: folder link or id is required", errdefs.ErrValidation)
	}
	return folderID, nil
}
