package drive

import (
	"context"
	"fmt"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Downloader struct {
	files Files
}

func NewDownloader(files Files) *Downloader {
	return &Downloader{files: files}
}

// Download copies every notebook of student into scratchDir as
// <student>_<file>, keeping Drive's listing order.
func (d *Downloader) Download(ctx context.Context, student model.StudentFolder, scratchDir string) (model.StudentRecord, error) {
	record := model.StudentRecord{
		ID:             student.ID,
		Name:           Sanitize(student.Name),
		Notebooks:      make([]model.NotebookRef, 0, len(student.Notebooks)),
		SubfolderCount: student.SubfolderCount,
	}

	used := make(map[string]struct{}, len(student.Notebooks))
	for _, nb := range student.Notebooks {
		path := uniquePath(filepath.Join(scratchDir, record.Name+"_"+Sanitize(nb.Name)), used)
		if err := d.downloadTo(ctx, nb.ID, path); err != nil {
			return model.StudentRecord{}, err
		}

		modified := nb.ModifiedTime
		if modified == "" {
			modified = model.DefaultModifiedTime
		}
		record.Notebooks = append(record.Notebooks, model.NotebookRef{Path: path, ModifiedTime: modified})

		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Debug(ctx, "notebook downloaded", zap.String("student", record.Name), zap.String("path", path))
		}
	}
	return record, nil
}

func (d *Downloader) downloadTo(ctx context.Context, fileID, path string) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is built from sanitized segments under the scratch dir
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return d.files.Download(ctx, fileID, f)
}

// uniquePath keeps two Drive files with the same name from overwriting each other.
func uniquePath(path string, used map[string]struct{}) string {
	candidate := path
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
		candidate = base + "_" + strconv.Itoa(i) + ext
	}
}
