package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic absorbs a panic in a background job and logs it with the
// stack trace. Meant for defer in goroutines that must outlive a bad
// iteration, such as the audit retention sweep:
//
//	defer observability.RecoverPanic(logger, "audit retention sweep")
//
// The panic is not re-raised; the goroutine returns normally.
func RecoverPanic(logger *Logger, job string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic": r,
			"job":   job,
			"stack": string(debug.Stack()),
		}).Error("panic recovered")
	}
}

// MustRecover converts a recovered panic value into an error:
//
//	defer func() { err = observability.MustRecover(recover()) }()
//
// Returns nil when r is nil.
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
