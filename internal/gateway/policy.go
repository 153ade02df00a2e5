package gateway

import (
	"time"

	"github.com/opennetty/opennetty/internal/protocol"
)

// Policy bundles the per-dialect timing and retry rules a worker
// applies to its Command session. Each dialect's numbers come
// straight from the gateway characteristics: SCS is a fast wired bus,
// powerline Nitoo expects collisions and wants more, slower attempts,
// Zigbee mesh sits between the two.
type Policy struct {
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryBackoff   []time.Duration // length MaxAttempts-1; backoff before attempt i+1

	SessionOpenTimeout time.Duration
	OpenBackoff        []time.Duration // capped sequence applied on repeated reopen failures
}

// PolicyFor returns the standard Policy for dialect.
func PolicyFor(dialect protocol.Dialect) Policy {
	switch dialect {
	case protocol.Scs:
		return Policy{
			RequestTimeout:     2 * time.Second,
			MaxAttempts:        3,
			RetryBackoff:       []time.Duration{100 * time.Millisecond, 200 * time.Millisecond},
			SessionOpenTimeout: 3 * time.Second,
			OpenBackoff:        openBackoffLadder(),
		}
	case protocol.Nitoo:
		return Policy{
			RequestTimeout: 4 * time.Second,
			MaxAttempts:    5,
			RetryBackoff: []time.Duration{
				200 * time.Millisecond, 400 * time.Millisecond,
				800 * time.Millisecond, 1600 * time.Millisecond,
			},
			SessionOpenTimeout: 4 * time.Second,
			OpenBackoff:        openBackoffLadder(),
		}
	case protocol.Zigbee:
		return Policy{
			RequestTimeout:     3 * time.Second,
			MaxAttempts:        4,
			RetryBackoff:       []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond},
			SessionOpenTimeout: 3 * time.Second,
			OpenBackoff:        openBackoffLadder(),
		}
	default:
		return PolicyFor(protocol.Scs)
	}
}

func openBackoffLadder() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}
}

// backoffFor returns the delay before the given retry attempt
// (1-indexed: attempt 2 is the first retry), capped at the last
// configured step if the attempt count runs past the slice.
func (p Policy) backoffFor(attempt int) time.Duration {
	idx := attempt - 2
	if idx < 0 {
		return 0
	}
	if idx >= len(p.RetryBackoff) {
		idx = len(p.RetryBackoff) - 1
	}
	return p.RetryBackoff[idx]
}

// openBackoffFor returns the delay before the Nth reopen attempt
// (1-indexed), capped at the ladder's last step.
func (p Policy) openBackoffFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.OpenBackoff) {
		idx = len(p.OpenBackoff) - 1
	}
	return p.OpenBackoff[idx]
}

// retryable reports whether err is eligible for another attempt.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	default:
		return isRetryableKind(err)
	}
}
