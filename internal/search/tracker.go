// AngelaMos | 2026
// tracker.go

package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/forum-api/internal/core"
)

const (
	dayKeyPrefix = "search:tags:"
	lastSeenKey  = "search:tags:last"
	dayLayout    = "20060102"
)

// TagVocabulary reports whether a tag name is one the forum knows.
type TagVocabulary interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type PopularTag struct {
	Tag          string    `json:"tag"`
	Count        int64     `json:"count"`
	LastSearched time.Time `json:"last_searched"`
}

// Tracker counts tag searches in one sorted set per UTC day. Popularity
// over a window is the union of the day sets it covers, so old days drop
// out on their own and expire.
type Tracker struct {
	rdb   *redis.Client
	tags  TagVocabulary
	days  int
	limit int
	now   func() time.Time
}

func NewTracker(rdb *redis.Client, tags TagVocabulary, window time.Duration, limit int) *Tracker {
	days := int(window / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	if limit < 1 {
		limit = 3
	}

	return &Tracker{
		rdb:   rdb,
		tags:  tags,
		days:  days,
		limit: limit,
		now:   time.Now,
	}
}

// Record counts one search for tag. Unknown tags are rejected so the
// popularity board only ever shows vocabulary terms.
func (t *Tracker) Record(ctx context.Context, tag string) error {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return fmt.Errorf("record search: empty tag: %w", core.ErrInvalidInput)
	}

	if t.tags != nil {
		ok, err := t.tags.Exists(ctx, tag)
		if err != nil {
			return fmt.Errorf("record search: %w", err)
		}
		if !ok {
			return fmt.Errorf("record search: unknown tag %q: %w", tag, core.ErrInvalidInput)
		}
	}

	now := t.now().UTC()
	key := dayKey(now)

	pipe := t.rdb.TxPipeline()
	pipe.ZIncrBy(ctx, key, 1, tag)
	pipe.Expire(ctx, key, time.Duration(t.days+1)*24*time.Hour)
	pipe.HSet(ctx, lastSeenKey, tag, now.Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	core.SearchesLogged.Inc()
	return nil
}

// Popular returns the most searched tags over the trailing window,
// highest count first.
func (t *Tracker) Popular(ctx context.Context) ([]PopularTag, error) {
	now := t.now().UTC()

	keys := make([]string, 0, t.days)
	for i := range t.days {
		keys = append(keys, dayKey(now.AddDate(0, 0, -i)))
	}

	dest := "search:tags:union:" + uuid.New().String()
	defer t.rdb.Del(context.WithoutCancel(ctx), dest)

	if err := t.rdb.ZUnionStore(ctx, dest, &redis.ZStore{
		Keys:      keys,
		Aggregate: "SUM",
	}).Err(); err != nil {
		return nil, fmt.Errorf("popular searches: %w", err)
	}

	ranked, err := t.rdb.ZRevRangeWithScores(ctx, dest, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("popular searches: %w", err)
	}

	// Tags deleted from the vocabulary keep their counts until the day sets
	// expire; they are skipped here so the board only shows live tags.
	names := make([]string, 0, t.limit)
	counts := make([]int64, 0, t.limit)
	for _, z := range ranked {
		if len(names) == t.limit {
			break
		}
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		if t.tags != nil {
			live, err := t.tags.Exists(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("popular searches: %w", err)
			}
			if !live {
				continue
			}
		}
		names = append(names, name)
		counts = append(counts, int64(z.Score))
	}
	if len(names) == 0 {
		return []PopularTag{}, nil
	}

	seen, err := t.rdb.HMGet(ctx, lastSeenKey, names...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("popular searches: last seen: %w", err)
	}

	out := make([]PopularTag, 0, len(names))
	for i, name := range names {
		p := PopularTag{Tag: name, Count: counts[i]}
		if i < len(seen) {
			if s, ok := seen[i].(string); ok {
				if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
					p.LastSearched = time.Unix(unix, 0).UTC()
				}
			}
		}
		out = append(out, p)
	}

	return out, nil
}

func dayKey(t time.Time) string {
	return dayKeyPrefix + t.Format(dayLayout)
}
