package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"notebookeval/internal/config"
	"notebookeval/internal/errdefs"
	"notebookeval/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	listPageSize = 100
	chunkSize    = 256 << 10
)

// Item is the subset of Drive file metadata the walker needs.
type Item struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string
}

// Files is the read-only slice of the Drive API used by Walker and Downloader.
type Files interface {
	List(ctx context.Context, query string) ([]Item, error)
	Download(ctx context.Context, fileID string, w io.Writer) error
}

type Client struct {
	svc *drivev3.Service
}

// NewClient authenticates as the configured service account with read-only Drive scope.
// A non-empty endpoint replaces the public API base path.
func NewClient(ctx context.Context, cfg config.GoogleConfig, endpoint string) (*Client, error) {
	key, err := cfg.ServiceAccountJSON()
	if err != nil {
		return nil, fmt.Errorf("encode service account key: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(key, drivev3.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account key: %v", errdefs.ErrConfig, err)
	}

	opts := []option.ClientOption{option.WithTokenSource(jwtCfg.TokenSource(ctx))}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func NewClientWithService(svc *drivev3.Service) *Client {
	return &Client{svc: svc}
}

func (c *Client) List(ctx context.Context, query string) ([]Item, error) {
	var items []Item
	call := c.svc.Files.List().
		Q(query).
		Fields("nextPageToken", "files(id, name, mimeType, modifiedTime)").
		PageSize(listPageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	err := call.Pages(ctx, func(page *drivev3.FileList) error {
		for _, f := range page.Files {
			items = append(items, Item{
				ID:           f.Id,
				Name:         f.Name,
				MimeType:     f.MimeType,
				ModifiedTime: f.ModifiedTime,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapAPIError("list files", err)
	}

	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Debug(ctx, "drive list", zap.String("query", query), zap.Int("items", len(items)))
	}
	return items, nil
}

// Download streams the file's media into w chunk by chunk until the body is exhausted.
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := c.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return wrapAPIError("download file "+fileID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("write file %s: %w", fileID, err)
			}
			written += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: read file %s: %v", errdefs.ErrUpstream, fileID, readErr)
		}
	}

	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Debug(ctx, "drive download complete", zap.String("file_id", fileID), zap.Int64("bytes", written))
	}
	return nil
}

func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return fmt.Errorf("%w: %s: %v", errdefs.ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", errdefs.ErrUpstream, op, err)
}
