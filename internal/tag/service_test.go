// AngelaMos | 2026
// service_test.go

package tag

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type memRepo struct {
	mu    sync.Mutex
	tags  map[string]Tag
	lists int
}

func newMemRepo() *memRepo {
	return &memRepo{tags: map[string]Tag{}}
}

func (m *memRepo) Create(_ context.Context, t *Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tags {
		if existing.Name == t.Name {
			return core.ErrDuplicateKey
		}
	}
	m.tags[t.ID] = *t
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) Rename(_ context.Context, t *Tag, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[t.ID] = *t
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.tags, id)
	return nil
}

func (m *memRepo) List(_ context.Context, search string) ([]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++

	out := []Tag{}
	for _, t := range m.tags {
		if strings.Contains(t.Name, strings.ToLower(search)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := newMemRepo()
	return NewService(repo, policy.New(5, true), core.NewCache(rdb, time.Minute)), repo
}

var admin = &policy.Session{
	UserID: "admin",
	Email:  "admin@example.com",
	Role:   policy.RoleAdmin,
}

func names(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func TestCreateThenSearchRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	before, err := svc.List(ctx, "go")
	require.NoError(t, err)
	assert.Empty(t, before)

	created, err := svc.Create(ctx, admin, "  GoLang ")
	require.NoError(t, err)
	assert.Equal(t, "golang", created.Name)

	found, err := svc.List(ctx, "GOLANG")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, names(found))

	require.NoError(t, svc.Delete(ctx, admin, created.ID))

	after, err := svc.List(ctx, "golang")
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestListServedFromCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, "databases")
	require.NoError(t, err)

	for range 3 {
		_, err := svc.List(ctx, "data")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.lists)
}

func TestManageTagsRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	user := &policy.Session{UserID: "u", Email: "u@example.com", Role: policy.RoleUser}

	_, err := svc.Create(context.Background(), user, "golang")
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(context.Background(), nil, "golang")
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), admin, "  !!  ")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"golang":           "golang",
		"machine learning": "machine-learning",
		"café crème":       "cafe-creme",
		"c++ / rust":       "c-rust",
		"--edge--":         "edge",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "machine learning", NormalizeName("  Machine   LEARNING "))
}
