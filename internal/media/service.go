// AngelaMos | 2026
// service.go

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

// sniffLen is enough leading bytes for mimetype to identify every
// image format it knows.
const sniffLen = 3072

type Upload struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Service struct {
	store ObjectStore
}

func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// Upload stores an image for the session user and returns its public URL.
// The content type is sniffed from the bytes, never taken from the client.
func (s *Service) Upload(
	ctx context.Context,
	sess *policy.Session,
	body io.Reader,
	size int64,
) (*Upload, error) {
	if !sess.Authenticated() {
		return nil, fmt.Errorf("upload: %w", core.ErrUnauthorized)
	}
	if size <= 0 {
		return nil, fmt.Errorf("upload: empty file: %w", core.ErrInvalidInput)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("upload: read: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, fmt.Errorf("upload: empty file: %w", core.ErrInvalidInput)
	}

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf(
			"upload: %s is not an image: %w",
			mtype.String(),
			core.ErrInvalidInput,
		)
	}

	key := fmt.Sprintf("uploads/%s/%s%s", sess.UserID, uuid.New().String(), mtype.Extension())
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]

	err = s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), body), size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload: %w: %w", core.ErrUnavailable, err)
	}

	slog.InfoContext(ctx, "media uploaded",
		"user_id", sess.UserID,
		"key", key,
		"content_type", contentType,
		"size", size,
	)

	return &Upload{
		URL:         s.store.URL(key),
		ContentType: contentType,
		Size:        size,
	}, nil
}
