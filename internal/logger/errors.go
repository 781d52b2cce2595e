package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned by Init without Log.AppName.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned by Init without Log.ServiceName.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// ErrorHandler counts an event zerolog could not write and reports it on
// stderr, the one writer left.
func ErrorHandler(err error) {
	registerMetrics()
	writeFailures.Inc()

	_, _ = fmt.Fprintf(os.Stderr, "mealdesk-web: log event lost: %v\n", err)
}
