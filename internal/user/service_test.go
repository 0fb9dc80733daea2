// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

// memRepo keeps users in a map and implements the membership store over
// the same records, the way the SQL repository shares one table.
type memRepo struct {
	mu         sync.Mutex
	users      map[string]User
	roleWrites int
	downgrades int
}

func newMemRepo(users ...User) *memRepo {
	m := &memRepo{users: map[string]User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) UpsertFederated(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return &existing, nil
		}
	}
	m.users[u.ID] = *u
	return u, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	m.roleWrites++
	return nil
}

func (m *memRepo) UpdatePassword(context.Context, string, string) error { return nil }

func (m *memRepo) IncrementTokenVersion(context.Context, string) error { return nil }

func (m *memRepo) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memRepo) List(context.Context, ListUsersParams) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memRepo) GetMembership(_ context.Context, id string) (membership.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return membership.Record{}, core.ErrNotFound
	}
	return u.Membership(), nil
}

func (m *memRepo) DowngradeExpired(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !membership.NeedsDowngrade(u.Member, u.MemberExpiresAt, now) {
		return false, nil
	}
	u.Member = membership.Bronze
	u.MemberExpiresAt = nil
	m.users[id] = u
	m.downgrades++
	return true, nil
}

func (m *memRepo) SwapMembership(_ context.Context, id string, _, next membership.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Member, u.MemberExpiresAt = next.Tier, next.ExpiresAt
	m.users[id] = u
	return true, nil
}

type sentNotice struct {
	userID, text, link string
}

type recorder struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (r *recorder) Notify(_ context.Context, userID, text, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotice{userID, text, link})
	return nil
}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(users ...User) (*Service, *memRepo, *recorder) {
	repo := newMemRepo(users...)
	notes := &recorder{}
	members := membership.NewService(repo, notes, 30*24*time.Hour).
		WithClock(func() time.Time { return now })
	pol := policy.New(5, false)
	pol.Now = func() time.Time { return now }
	return NewService(repo, pol, members, notes), repo, notes
}

var (
	root  = User{ID: "root", Email: "root@example.com", Role: policy.RoleSuperAdmin, Member: membership.Bronze}
	ada   = User{ID: "ada", Email: "ada@example.com", Role: policy.RoleAdmin, Member: membership.Bronze}
	bob   = User{ID: "bob", Email: "bob@example.com", Role: policy.RoleUser, Member: membership.Bronze}
	other = User{ID: "other", Email: "other@example.com", Role: policy.RoleSuperAdmin, Member: membership.Bronze}
)

func TestChangeRolePromotesAndNotifies(t *testing.T) {
	svc, repo, notes := newTestService(root, bob)

	updated, err := svc.ChangeRole(context.Background(), root.Session(), "bob", policy.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, updated.Role)

	stored, err := repo.GetByID(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, stored.Role)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, "bob", notes.sent[0].userID)
	assert.Contains(t, notes.sent[0].text, policy.RoleAdmin)
}

func TestChangeRoleRejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  *policy.Session
		target string
		role   string
		want   error
	}{
		{"anonymous", nil, "bob", policy.RoleAdmin, core.ErrUnauthorized},
		{"admin is not super-admin", ada.Session(), "bob", policy.RoleAdmin, core.ErrForbidden},
		{"self demotion", root.Session(), "root", policy.RoleUser, core.ErrForbidden},
		{"target is super-admin", root.Session(), "other", policy.RoleUser, core.ErrForbidden},
		{"super-admin is not assignable", root.Session(), "bob", policy.RoleSuperAdmin, core.ErrInvalidInput},
		{"unknown role", root.Session(), "bob", "owner", core.ErrInvalidInput},
		{"missing target", root.Session(), "ghost", policy.RoleAdmin, core.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, notes := newTestService(root, ada, bob, other)

			_, err := svc.ChangeRole(context.Background(), tc.actor, tc.target, tc.role)
			require.ErrorIs(t, err, tc.want)

			assert.Zero(t, repo.roleWrites)
			assert.Empty(t, notes.sent)
			assert.Equal(t, policy.RoleSuperAdmin, repo.users["root"].Role)
			assert.Equal(t, policy.RoleSuperAdmin, repo.users["other"].Role)
		})
	}
}

func TestChangeRoleUnchangedIsNoop(t *testing.T) {
	svc, repo, notes := newTestService(root, ada)

	got, err := svc.ChangeRole(context.Background(), root.Session(), "ada", policy.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, got.Role)

	assert.Zero(t, repo.roleWrites)
	assert.Empty(t, notes.sent)
}

func TestCheckMembershipReturnsRecordAfterDowngrade(t *testing.T) {
	expired := now.Add(-time.Hour)
	gold := User{
		ID:              "gold",
		Email:           "gold@example.com",
		Role:            policy.RoleUser,
		Member:          membership.Gold,
		MemberExpiresAt: &expired,
	}
	svc, repo, notes := newTestService(gold)
	sess := gold.Session()

	got, err := svc.CheckMembership(context.Background(), sess, "gold")
	require.NoError(t, err)
	assert.Equal(t, membership.Bronze, got.Member)
	assert.Nil(t, got.MemberExpiresAt)
	require.Len(t, notes.sent, 1)

	again, err := svc.CheckMembership(context.Background(), sess, "gold")
	require.NoError(t, err)
	assert.Equal(t, membership.Bronze, again.Member)
	assert.Equal(t, 1, repo.downgrades)
	assert.Len(t, notes.sent, 1)
}

func TestCheckMembershipKeepsActiveGold(t *testing.T) {
	future := now.Add(48 * time.Hour)
	gold := User{
		ID:              "gold",
		Email:           "gold@example.com",
		Role:            policy.RoleUser,
		Member:          membership.Gold,
		MemberExpiresAt: &future,
	}
	svc, repo, _ := newTestService(gold)

	got, err := svc.CheckMembership(context.Background(), gold.Session(), "gold")
	require.NoError(t, err)
	assert.Equal(t, membership.Gold, got.Member)
	assert.Zero(t, repo.downgrades)
}

func TestCheckMembershipAccess(t *testing.T) {
	svc, _, _ := newTestService(ada, bob, root)

	_, err := svc.CheckMembership(context.Background(), bob.Session(), "root")
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.CheckMembership(context.Background(), nil, "bob")
	require.ErrorIs(t, err, core.ErrUnauthorized)

	got, err := svc.CheckMembership(context.Background(), ada.Session(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.ID)
}
