// Package bus provides the domain event bus the refresh coordinator
// observes. Topics carry record-affecting activity from the native
// transcription pipeline and the auth layer.
package bus

import "context"

// Well-known topics.
const (
	TopicTranscriptionComplete = "transcription:complete"
	TopicTranscriptionError    = "transcription:error"
	TopicAuthChanged           = "auth:changed"
)

// Event is a single bus notification. RecordID is set only for topics
// that concern a specific record.
type Event struct {
	Topic    string
	RecordID string
}

// Handler receives events for a subscribed topic.
type Handler func(Event)

// Subscription is a live topic registration.
type Subscription interface {
	// Unsubscribe removes the registration. Safe to call more than once.
	Unsubscribe()
}

// Bus is the subscription surface of the event bus. Subscribe may block
// while the underlying transport registers the handler; callers that can
// be torn down concurrently must check their own disposal state when the
// call returns and unsubscribe immediately if already disposed.
type Bus interface {
	Subscribe(ctx context.Context, topic string, h Handler) (Subscription, error)
}
