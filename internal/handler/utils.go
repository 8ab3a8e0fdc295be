package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"notebookeval/internal/errdefs"
	"notebookeval/internal/logging"

	"go.uber.org/zap"
)

func mapErr(err error) int {
	switch {
	case errors.Is(err, errdefs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errdefs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errdefs.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

// publicMessage hides internal details for everything but client errors.
func publicMessage(err error, statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest, http.StatusNotFound:
		return err.Error()
	}
	return http.StatusText(statusCode)
}

func logError(ctx context.Context, msg string, err error) {
	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Error(ctx, msg, zap.Error(err))
	}
}
