package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic must be deferred directly by the update handler, or
// recover returns nil. updateID tags the log entry.
func RecoverFromPanic(updateID int) {
	r := recover()
	if r == nil {
		return
	}
	log.WithFields(log.Fields{
		"component": "bot",
		"update_id": updateID,
		"panic":     fmt.Sprint(r),
		"stack":     string(debug.Stack()),
	}).Error("Update handler panicked")
}
