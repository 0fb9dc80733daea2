// AngelaMos | 2026
// reconciler.go

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Reconciler asks the API to apply any pending membership downgrade and
// then reloads the record. Until a run succeeds the session is treated as
// bronze. There is no backoff; the next navigation retries.
type Reconciler struct {
	client  *Client
	session *Session
}

func NewReconciler(c *Client, s *Session) *Reconciler {
	return &Reconciler{client: c, session: s}
}

func (r *Reconciler) Run(ctx context.Context) error {
	if !r.session.Active() {
		return nil
	}

	// Every step is tied to the session generation the run started under,
	// so a sign-out or account switch mid-run cannot leak into the new
	// session.
	gen := r.session.generation()

	userID := r.session.UserID()
	if userID == "" {
		if err := r.session.refresh(ctx, r.client, gen); err != nil {
			return r.fail(ctx, gen, err)
		}
		userID = r.session.UserID()
	}

	path := "/v1/users/" + userID + "/member-expiry-check"
	if err := r.client.patch(ctx, path, nil, nil); err != nil {
		return r.fail(ctx, gen, err)
	}

	if err := r.session.refresh(ctx, r.client, gen); err != nil {
		return r.fail(ctx, gen, err)
	}

	return nil
}

func (r *Reconciler) fail(ctx context.Context, gen uint64, err error) error {
	if errors.Is(err, ErrSuperseded) {
		return err
	}

	r.session.markFailClosed(gen)
	slog.WarnContext(ctx, "membership reconciliation failed, treating as bronze",
		"error", err,
	)
	return fmt.Errorf("%w: %w", ErrReconciliation, err)
}
