package access

import (
	"errors"
	"fmt"
)

// Error taxonomy for access operations. Everything except
// ErrStorageUnavailable is detected before any durable write; callers decide
// user-facing messaging.
var (
	// ErrForbidden means the actor lacks the role required to manage access
	ErrForbidden = errors.New("actor is not allowed to manage access")

	// ErrNotEligible means the target has no membership in the document's
	// project; document access without project context is meaningless
	ErrNotEligible = errors.New("target user is not a member of the project")

	// ErrNothingToRemove means the operation referenced a grant that does
	// not exist; benign, and never audited
	ErrNothingToRemove = errors.New("no grant exists for the target user")

	// ErrInvalidRole means the role string is outside the role table
	ErrInvalidRole = errors.New("invalid role")

	// ErrLastOwner means the change would leave the project with no owner
	ErrLastOwner = errors.New("project must retain at least one owner")

	// ErrStorageUnavailable wraps infrastructure failures; the transactional
	// boundary guarantees no partial state was committed
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr tags an infrastructure failure with ErrStorageUnavailable so
// callers can match it with errors.Is
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
