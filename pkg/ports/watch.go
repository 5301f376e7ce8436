package ports

import "context"

// Watchable defines an interface for program sources that can notify about changes.
// This is used by watch mode to reload a program file when it is edited.
type Watchable interface {
	// Watch returns a channel that is signaled when the source changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
