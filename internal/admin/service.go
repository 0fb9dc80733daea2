// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"

	"github.com/carterperez-dev/forum-api/internal/policy"
)

// Probe is one backing service shown on the dashboard.
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

type Config struct {
	Repo       Repository
	Policy     *policy.Policy
	Probes     []Probe
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
}

// Service assembles the admin dashboard: forum counts plus dependency and
// pool state.
type Service struct {
	repo       Repository
	policy     *policy.Policy
	probes     []Probe
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	now        func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		repo:       cfg.Repo,
		policy:     cfg.Policy,
		probes:     cfg.Probes,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		now:        time.Now,
	}
}

type Dashboard struct {
	Forum        ForumCounts       `json:"forum"`
	Dependencies []DependencyState `json:"dependencies"`
	Pools        PoolSummary       `json:"pools"`
	Goroutines   int               `json:"goroutines"`
	HeapBytes    uint64            `json:"heap_bytes"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type DependencyState struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
}

// PoolSummary is the subset of database and redis pool state shown to admins.
type PoolSummary struct {
	DBOpen      int    `json:"db_open"`
	DBInUse     int    `json:"db_in_use"`
	DBWaitCount int64  `json:"db_wait_count"`
	RedisTotal  uint32 `json:"redis_total"`
	RedisIdle   uint32 `json:"redis_idle"`
	RedisMisses uint32 `json:"redis_misses"`
}

func (s *Service) ForumCounts(ctx context.Context, sess *policy.Session) (*ForumCounts, error) {
	if err := s.policy.Authorize(sess, policy.ActionViewAdminDashboard, policy.Target{}); err != nil {
		return nil, err
	}
	return s.repo.ForumCounts(ctx)
}

// Dashboard fails only when the forum counts cannot be read; a dependency
// that does not answer is reported unhealthy.
func (s *Service) Dashboard(ctx context.Context, sess *policy.Session) (*Dashboard, error) {
	counts, err := s.ForumCounts(ctx, sess)
	if err != nil {
		return nil, err
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &Dashboard{
		Forum:        *counts,
		Dependencies: s.pingAll(ctx),
		Pools:        s.pools(),
		Goroutines:   runtime.NumGoroutine(),
		HeapBytes:    mem.HeapAlloc,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

func (s *Service) pingAll(ctx context.Context) []DependencyState {
	states := make([]DependencyState, len(s.probes))

	var wg conc.WaitGroup
	for i, p := range s.probes {
		wg.Go(func() {
			states[i] = DependencyState{
				Name:    p.Name,
				Healthy: p.Ping != nil && p.Ping(ctx) == nil,
			}
		})
	}
	wg.Wait()

	return states
}

func (s *Service) pools() PoolSummary {
	var out PoolSummary

	if s.dbStats != nil {
		db := s.dbStats()
		out.DBOpen = db.OpenConnections
		out.DBInUse = db.InUse
		out.DBWaitCount = db.WaitCount
	}

	if s.redisStats != nil {
		if rs := s.redisStats(); rs != nil {
			out.RedisTotal = rs.TotalConns
			out.RedisIdle = rs.IdleConns
			out.RedisMisses = rs.Misses
		}
	}

	return out
}
