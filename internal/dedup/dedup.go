// Package dedup provides the at-most-once admission check for inbound
// webhook events. A claim is written before any other processing so a crash
// mid-run cannot turn platform redelivery into a retry storm.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a processed event id is remembered. Events
// redelivered after the TTL may reprocess; idempotency inside that window is
// what matters.
const DefaultTTL = 1000 * time.Second

// Guard admits each event id at most once per TTL window.
type Guard interface {
	// Claim atomically records eventID as processed. It returns true only
	// for the first caller within the TTL window; concurrent claims for the
	// same id cannot both win.
	Claim(ctx context.Context, eventID string) (bool, error)
}
