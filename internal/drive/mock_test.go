package drive

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockFiles is a testify mock for Files. Download writes the configured
// content to w before returning the configured error.
type MockFiles struct {
	mock.Mock
}

func (m *MockFiles) List(ctx context.Context, query string) ([]Item, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockFiles) Download(ctx context.Context, fileID string, w io.Writer) error {
	args := m.Called(ctx, fileID, w)
	if content, ok := args.Get(0).(string); ok {
		if _, err := io.WriteString(w, content); err != nil {
			return err
		}
	}
	return args.Error(1)
}
