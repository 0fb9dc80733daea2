// AngelaMos | 2026
// poller.go

package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultPollInterval = 30 * time.Second

// Poller keeps the unread notification count fresh on a fixed interval.
type Poller struct {
	client   *Client
	session  *Session
	interval time.Duration
	onChange func(int)

	mu     sync.RWMutex
	unread int
}

func NewPoller(c *Client, s *Session, interval time.Duration, onChange func(int)) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		client:   c,
		session:  s,
		interval: interval,
		onChange: onChange,
	}
}

func (p *Poller) Unread() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unread
}

// Refresh reads the unread count once. Signed-out sessions read zero.
func (p *Poller) Refresh(ctx context.Context) (int, error) {
	if !p.session.Active() {
		p.set(0)
		return 0, nil
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := p.client.get(ctx, "/v1/notifications/unread/count", &resp); err != nil {
		return p.Unread(), fmt.Errorf("unread count: %w", err)
	}

	p.set(resp.Count)
	return resp.Count, nil
}

// Run polls until ctx is done. Failed polls keep the last known count.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				slog.DebugContext(ctx, "notification poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) set(n int) {
	p.mu.Lock()
	changed := p.unread != n
	p.unread = n
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(n)
	}
}
