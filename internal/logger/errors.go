package logger

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Init refuses a config without names, they label every entry and the metrics.
var (
	ErrAppNameIsEmpty     = errors.New("logger: app name is empty")
	ErrServiceNameIsEmpty = errors.New("logger: service name is empty")
)

// ErrorHandler is installed as zerolog.ErrorHandler. An entry that could not
// be written is reported on stderr and counted.
func ErrorHandler(err error) {
	if writeErrors != nil {
		writeErrors.Inc()
	}

	_, _ = fmt.Fprintf(os.Stderr, "traveloop logger: entry dropped: %v\n", err)
}
