package game

import "fmt"

type EventKind uint8

const (
	EventGameStarted EventKind = iota
	EventMoved
	EventCaptured
	EventCheck
	EventGameEnded
	EventIllegalAttempt
)

func (k EventKind) String() string {
	switch k {
	case EventGameStarted:
		return "gameStarted"
	case EventMoved:
		return "moved"
	case EventCaptured:
		return "captured"
	case EventCheck:
		return "check"
	case EventGameEnded:
		return "gameEnded"
	case EventIllegalAttempt:
		return "illegalAttempt"
	default:
		return "?"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "gameStarted":
		*k = EventGameStarted
	case "moved":
		*k = EventMoved
	case "captured":
		*k = EventCaptured
	case "check":
		*k = EventCheck
	case "gameEnded":
		*k = EventGameEnded
	case "illegalAttempt":
		*k = EventIllegalAttempt
	default:
		return fmt.Errorf("invalid event kind %q", string(text))
	}
	return nil
}

// Event is a discrete signal for notification collaborators such as a sound
// player. Fields not relevant to Kind are zero.
type Event struct {
	Kind     EventKind `json:"kind"`
	Move     Move      `json:"move"`
	Side     Color     `json:"side"`
	Captured PieceType `json:"captured,omitempty"`
	Outcome  Outcome   `json:"outcome"`
}

// Notifier receives engine events. Implementations must not call back into
// the engine.
type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }
