package events

// EventKind represents the type of domain event produced by the fragment
// services.
type EventKind string

const (
	EventFragmentSaved   EventKind = "fragment_saved"
	EventFragmentDeleted EventKind = "fragment_deleted"
)

// Event carries the minimum data consumers need. Only the id is carried;
// subscribers query the full record from the store.
type Event struct {
	Kind       EventKind
	FragmentID string
}

// Bus is a lightweight in-process pub-sub implementation backed by a
// buffered channel. It drives reactive rules such as "auto-analyze once the
// fragment count crosses the threshold" without coupling services to each
// other.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
