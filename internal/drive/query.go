package drive

import (
	"fmt"
	"strings"
)

const (
	FolderMimeType    = "application/vnd.google-apps.folder"
	NotebookExtension = ".ipynb"
)

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(s string) string {
	return "'" + queryEscaper.Replace(s) + "'"
}

func childFoldersQuery(parentID string) string {
	return fmt.Sprintf("%s in parents and mimeType = %s and trashed = false", quote(parentID), quote(FolderMimeType))
}

func notebooksQuery(parentID string) string {
	return fmt.Sprintf("%s in parents and name contains %s and trashed = false", quote(parentID), quote(NotebookExtension))
}
