// AngelaMos | 2026
// service_test.go

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if m.failPut != nil {
		return m.failPut
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memStore) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func (m *memStore) Ping(context.Context) error {
	return nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var uploader = &policy.Session{UserID: "u1", Email: "u@example.com", Role: policy.RoleUser}

func TestUploadStoresImage(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	data := pngBytes(t)

	up, err := svc.Upload(context.Background(), uploader, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, "image/png", up.ContentType)
	assert.True(t, strings.HasPrefix(up.URL, "https://cdn.example.com/uploads/u1/"))
	assert.True(t, strings.HasSuffix(up.URL, ".png"))

	require.Len(t, store.objects, 1)
	for key, stored := range store.objects {
		assert.Equal(t, data, stored, "sniffed prefix must be replayed")
		assert.Equal(t, "image/png", store.types[key])
	}
}

func TestUploadRejects(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	text := []byte("just some text, definitely not a picture")
	_, err := svc.Upload(ctx, uploader, bytes.NewReader(text), int64(len(text)))
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Upload(ctx, uploader, bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Upload(ctx, nil, bytes.NewReader(text), int64(len(text)))
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUploadStoreFailureIsUnavailable(t *testing.T) {
	store := newMemStore()
	store.failPut = errors.New("connection refused")
	data := pngBytes(t)

	_, err := NewService(store).Upload(context.Background(), uploader, bytes.NewReader(data), int64(len(data)))

	require.ErrorIs(t, err, core.ErrUnavailable)
}

func multipartRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(middleware.WithSession(req.Context(), uploader))
}

func TestUploadHandler(t *testing.T) {
	h := NewHandler(NewService(newMemStore()), 1<<20)
	data := pngBytes(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "file", data))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Data    Upload `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(len(data)), resp.Data.Size)
}

func TestUploadHandlerRequiresFileField(t *testing.T) {
	h := NewHandler(NewService(newMemStore()), 1<<20)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "attachment", pngBytes(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandlerRejectsOversize(t *testing.T) {
	h := NewHandler(NewService(newMemStore()), 16)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "file", pngBytes(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
