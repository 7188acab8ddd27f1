package broker

import (
	"fmt"
)

// UnknownServiceError is the normal negative result for a service
// name the directory doesn't know. Terminal: the core never retries
// it.
type UnknownServiceError struct {
	ServiceName string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("Unknown service: %s", e.ServiceName)
}
