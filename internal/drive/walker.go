package drive

import (
	"context"
	"fmt"
	"notebookeval/internal/errdefs"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"

	"go.uber.org/zap"
)

type Walker struct {
	files Files
}

func NewWalker(files Files) *Walker {
	return &Walker{files: files}
}

// Students lists the root's direct subfolders that hold at least one notebook,
// in the order Drive returns them.
func (w *Walker) Students(ctx context.Context, rootID string) ([]model.StudentFolder, error) {
	folders, err := w.files.List(ctx, childFoldersQuery(rootID))
	if err != nil {
		return nil, fmt.Errorf("list student folders: %w", err)
	}

	students := make([]model.StudentFolder, 0, len(folders))
	for _, folder := range folders {
		student, ok, err := w.inspect(ctx, folder)
		if err != nil {
			return nil, err
		}
		if !ok {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Debug(ctx, "skipping folder without notebooks", zap.String("folder", folder.Name))
			}
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// Student returns a single notebook-bearing subfolder of rootID.
func (w *Walker) Student(ctx context.Context, rootID, studentID string) (model.StudentFolder, error) {
	folders, err := w.files.List(ctx, childFoldersQuery(rootID))
	if err != nil {
		return model.StudentFolder{}, fmt.Errorf("list student folders: %w", err)
	}

	for _, folder := range folders {
		if folder.ID != studentID {
			continue
		}
		student, ok, err := w.inspect(ctx, folder)
		if err != nil {
			return model.StudentFolder{}, err
		}
		if !ok {
			break
		}
		return student, nil
	}
	return model.StudentFolder{}, fmt.Errorf("student folder %s: %w", studentID, errdefs.ErrNotFound)
}

func (w *Walker) inspect(ctx context.Context, folder Item) (model.StudentFolder, bool, error) {
	files, err := w.files.List(ctx, notebooksQuery(folder.ID))
	if err != nil {
		return model.StudentFolder{}, false, fmt.Errorf("list notebooks of %s: %w", folder.Name, err)
	}
	if len(files) == 0 {
		return model.StudentFolder{}, false, nil
	}

	nested, err := w.files.List(ctx, childFoldersQuery(folder.ID))
	if err != nil {
		return model.StudentFolder{}, false, fmt.Errorf("count subfolders of %s: %w", folder.Name, err)
	}

	notebooks := make([]model.NotebookFile, 0, len(files))
	for _, f := range files {
		modified := f.ModifiedTime
		if modified == "" {
			modified = model.DefaultModifiedTime
		}
		notebooks = append(notebooks, model.NotebookFile{ID: f.ID, Name: f.Name, ModifiedTime: modified})
	}

	return model.StudentFolder{
		ID:             folder.ID,
		Name:           Sanitize(folder.Name),
		Notebooks:      notebooks,
		SubfolderCount: len(nested),
	}, true, nil
}
