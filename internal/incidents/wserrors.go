package incidents

import (
	"errors"

	"github.com/bissquit/incident-room/internal/store"
)

// wsErrorType maps a PostUpdate failure to the outbound message type.
// A resolved incident is a policy notice, not an error.
func wsErrorType(err error) string {
	if errors.Is(err, ErrIncidentResolved) {
		return "system"
	}
	return "error"
}

// wsErrorText maps a PostUpdate failure to viewer-facing text.
func wsErrorText(err error) string {
	switch {
	case errors.Is(err, ErrIncidentResolved):
		return "Incident is resolved. No new updates allowed."
	case errors.Is(err, store.ErrNotFound):
		return "Incident not found"
	default:
		return "internal error"
	}
}
