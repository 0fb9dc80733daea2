// AngelaMos | 2026
// errors.go

package client

import (
	"errors"
	"fmt"

	"github.com/carterperez-dev/forum-api/internal/core"
)

var (
	// ErrAuthExpired means the credential is gone or no longer accepted.
	// The session is invalidated and every gated action is denied.
	ErrAuthExpired = errors.New("authentication expired")
	ErrForbidden   = errors.New("forbidden")
	// ErrQuotaExceeded is a normal outcome for bronze members at the post
	// ceiling; callers offer the upgrade path.
	ErrQuotaExceeded  = errors.New("post quota exceeded")
	ErrReconciliation = errors.New("membership reconciliation failed")
	ErrUnknownTag     = errors.New("unknown tag")
	// ErrSuperseded is returned for a response that arrived after a newer
	// fetch replaced it.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// TransientError is any other failed request. It is surfaced to the user
// as recoverable and never retried automatically.
type TransientError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// fromPolicy maps a local policy denial onto the client taxonomy.
func fromPolicy(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrQuotaExceeded):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case errors.Is(err, core.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrAuthExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
}
