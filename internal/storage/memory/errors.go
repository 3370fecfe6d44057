package memory

import "fmt"

// DuplicateError is returned when an order id is created twice.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("order %q already exists", e.ID)
}
