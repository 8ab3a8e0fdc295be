package ctxdata

import (
	"context"
)

type traceIDKey struct{}
type folderIDKey struct{}

var (
	traceIDKeyInstance  = traceIDKey{}
	folderIDKeyInstance = folderIDKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	v := ctx.Value(traceIDKeyInstance)
	traceID, ok := v.(string)
	return traceID, ok
}

// WithFolderID records the root Drive folder a request is working on.
func WithFolderID(ctx context.Context, folderID string) context.Context {
	return context.WithValue(ctx, folderIDKeyInstance, folderID)
}

func GetFolderID(ctx context.Context) (string, bool) {
	v := ctx.Value(folderIDKeyInstance)
	folderID, ok := v.(string)
	return folderID, ok
}
