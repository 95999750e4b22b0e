// Package timeout defines centralized timeout constants for reply operations.
package timeout

import "time"

const (
	// CompletionTimeout is the timeout for one completion request.
	// Local models on modest hardware can take minutes.
	CompletionTimeout = 2 * time.Minute

	// ReplyTimeout bounds a whole reply: history fetch, assembly and completion.
	ReplyTimeout = 3 * time.Minute

	// TypingInterval is how often the typing indicator is refreshed.
	// Discord clears it after about ten seconds.
	TypingInterval = 8 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
