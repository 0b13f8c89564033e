package gameserver

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Channel is one delivery path to a player: frames go out, and the channel
// can be closed. A user may hold several channels at once (multiple tabs or
// devices), each receiving every frame addressed to the user.
type Channel interface {
	// ID uniquely identifies this channel within the process.
	ID() string
	// Send delivers one frame. A non-nil error means the channel is dead.
	Send(frame Frame) error
	// Close shuts the channel down. Closing twice is safe.
	Close() error
}

// Registry tracks the live channels of every connected user. Channels are
// kept in attach order; detaching is idempotent, and a user with no channels
// left is removed entirely.
type Registry struct {
	mu       sync.RWMutex
	channels map[string][]Channel
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
//
// Precondition: logger must be non-nil.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		channels: make(map[string][]Channel),
		logger:   logger,
	}
}

// Attach adds a channel to the user's list. The same channel attached twice
// appears twice.
func (r *Registry) Attach(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[userID] = append(r.channels[userID], ch)
	r.logger.Debug("channel attached",
		zap.String("user", userID),
		zap.String("channel", ch.ID()),
		zap.Int("channels", len(r.channels[userID])),
	)
}

// Detach removes one occurrence of the channel from the user's list and
// reports whether anything was removed. Detaching an unknown channel is a
// no-op, so cleanup paths may race without harm.
func (r *Registry) Detach(userID string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.channels[userID]
	if !ok {
		return false
	}
	for i, existing := range list {
		if existing.ID() == ch.ID() {
			r.channels[userID] = append(list[:i], list[i+1:]...)
			if len(r.channels[userID]) == 0 {
				delete(r.channels, userID)
			}
			r.logger.Debug("channel detached",
				zap.String("user", userID),
				zap.String("channel", ch.ID()),
			)
			return true
		}
	}
	return false
}

// Channels returns a snapshot of the user's channels in attach order.
func (r *Registry) Channels(userID string) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.channels[userID]
	out := make([]Channel, len(list))
	copy(out, list)
	return out
}

// Users returns the connected user IDs in sorted order.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.channels))
	for userID := range r.channels {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// ChannelCount returns how many channels the user currently holds.
func (r *Registry) ChannelCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID])
}
