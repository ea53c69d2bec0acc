package mutate

import (
	"fmt"

	"todoboard/internal/model"
)

// NotFoundError is reported when an operation names an entity the snapshot
// does not hold.
type NotFoundError = model.NotFoundError

// CommitError wraps a failed store commit. The batch was not applied and is not
// retried.
type CommitError struct {
	Mutations int
	Err       error
}

func (e CommitError) Error() string {
	return fmt.Sprintf("commit %d mutations: %v", e.Mutations, e.Err)
}

func (e CommitError) Unwrap() error { return e.Err }
