package payments

import "strings"

// Event is anything that may move a payment between statuses.
type Event string

const (
	EventCallbackCompleted Event = "callback.completed"
	EventCallbackFailed    Event = "callback.failed"
	EventCallbackPending   Event = "callback.pending"

	EventManualPending   Event = "manual.pending"
	EventManualCompleted Event = "manual.completed"
	EventManualFailed    Event = "manual.failed"
)

// NextStatus is the payment state machine.
//
// Manual events always win. Callback events move pending to a terminal
// status, re-applying the same terminal status is a no-op, and a callback
// contradicting a terminal status returns the current status together with
// ErrConflictingTerminal: the first terminal write wins.
func NextStatus(current Status, ev Event) (Status, error) {
	if !current.Valid() {
		return current, ErrInvalidStatus
	}

	switch ev {
	case EventManualPending:
		return StatusPending, nil
	case EventManualCompleted:
		return StatusCompleted, nil
	case EventManualFailed:
		return StatusFailed, nil

	case EventCallbackPending:
		return current, nil

	case EventCallbackCompleted:
		switch current {
		case StatusPending, StatusCompleted:
			return StatusCompleted, nil
		default:
			return current, ErrConflictingTerminal
		}

	case EventCallbackFailed:
		switch current {
		case StatusPending, StatusFailed:
			return StatusFailed, nil
		default:
			return current, ErrConflictingTerminal
		}
	}
	return current, ErrInvalidTransition
}

// ManualEvent maps an operator-chosen status to its override event.
func ManualEvent(s Status) (Event, error) {
	switch s {
	case StatusPending:
		return EventManualPending, nil
	case StatusCompleted:
		return EventManualCompleted, nil
	case StatusFailed:
		return EventManualFailed, nil
	}
	return "", ErrInvalidStatus
}

// CallbackEvent classifies the gateway's free-form status string. Anything
// that is neither a success nor a failure only records the payload.
func CallbackEvent(status string) Event {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "successful", "completed", "complete", "paid", "settled":
		return EventCallbackCompleted
	case "failed", "failure", "error", "cancelled", "canceled", "rejected", "declined", "expired":
		return EventCallbackFailed
	default:
		return EventCallbackPending
	}
}
