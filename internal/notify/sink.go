// Package notify delivers desktop notifications for decoded events when the
// notifier flag is set.
package notify

import (
	"time"

	"github.com/gen2brain/beeep"

	"fileguard/internal/action"
)

// Sink receives one notification per decoded event. Delivery failures are
// the sink's problem to report; they never stop the dispatch loop.
type Sink interface {
	Notify(at time.Time, eventName string) error
}

// Desktop raises a desktop notification per event through the host
// notification service.
type Desktop struct {
	// Title labels every notification; empty means the application name.
	Title string
}

func (sink Desktop) Notify(at time.Time, eventName string) error {
	title := sink.Title
	if title == "" {
		title = "fileguard"
	}
	return beeep.Notify(title, at.Format(action.TimestampLayout)+eventName, "")
}
