package fscache

// Event identifies something that happened inside a Store.
type Event int

const (
	EventHit          Event = iota // live entry returned
	EventMiss                      // no entry, or invalid key
	EventSet                       // entry written
	EventSetFailed                 // invalid key, encode or write failure
	EventDelete                    // entry removed (or already absent)
	EventDeleteFailed              // neither removal nor truncation worked
	EventExpired                   // expired entry removed on read
	EventCorrupt                   // empty or undecodable entry removed on read
	EventTruncated                 // removal failed, file truncated instead
)

var eventNames = [...]string{
	EventHit:          "hit",
	EventMiss:         "miss",
	EventSet:          "set",
	EventSetFailed:    "set_failed",
	EventDelete:       "delete",
	EventDeleteFailed: "delete_failed",
	EventExpired:      "expired",
	EventCorrupt:      "corrupt",
	EventTruncated:    "truncated",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[e]
}

// ParseEvent returns the Event whose String form is name.
func ParseEvent(name string) (Event, bool) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), true
		}
	}
	return 0, false
}

// Observer receives store events. Implementations must be cheap; they are
// called with the store lock held.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) { f(ev) }
