package game

import "fmt"

// AuthorizationError reports that the acting identity is not allowed to
// perform the operation: not the current player, or missing host privilege.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// ValidationError reports a move that references state that does not exist
// (card not in hand, unknown action) or arrives outside inProgress. The room
// is left untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports that a room or player could not be resolved.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
