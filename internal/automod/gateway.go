package automod

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Gateway error taxonomy. Adapters translate transport-specific failures
// (HTTP status codes from the Discord REST API) into these kinds so the
// engine can decide what is fatal, what degrades, and what is tolerated.
var (
	// ErrForbidden means the gateway refused a remediation sub-action. The
	// sub-action degrades; the pipeline continues.
	ErrForbidden = errors.New("missing permission")

	// ErrNotFound means the target is already gone (message deleted, member
	// left). Treated as success-equivalent.
	ErrNotFound = errors.New("target not found")

	// ErrTransport covers request failures and timeouts. The sub-action is
	// treated as failed and not retried.
	ErrTransport = errors.New("transport failure")
)

// StorageError marks a rate tracker or warning store failure. It aborts
// processing of the affected message: the message is neither actioned nor
// incorrectly flagged.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Gateway is the set of chat-platform capabilities the engine needs to
// execute remediation. Implemented by the Discord adapter in internal/bot.
type Gateway interface {
	// DeleteMessage removes the offending message.
	DeleteMessage(ctx context.Context, channelID, messageID uint64) error
	// TimeoutMember mutes the member until the given time.
	TimeoutMember(ctx context.Context, guildID, userID uint64, until time.Time, reason string) error
	// BanMember bans the member, deleting their messages from the retention window.
	BanMember(ctx context.Context, guildID, userID uint64, retention time.Duration, reason string) error
}
