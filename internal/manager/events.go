package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + conversation and optional fields via key/values.
//
// Names: chat_created, chat_loaded, chat_sent, chat_renamed, chat_deleted,
// preset_selected, base_url_changed.
type Event struct {
	Name         string
	Conversation string
	Fields       map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
