package incidents

import "errors"

// Service errors.
var (
	// ErrIncidentResolved gates updates to a resolved incident. It is a
	// policy outcome, not a fault: viewers are told no further updates
	// are accepted.
	ErrIncidentResolved = errors.New("incident is resolved, no new updates allowed")
)
