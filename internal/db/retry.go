package db

import (
	"strings"
	"time"

	"github.com/lantern-ml/evalbench/internal/timeutil"
)

// maxBusyRetries bounds how often a store operation is retried when
// sqlite reports the database as busy.
const maxBusyRetries = 5

// clock is swapped for a mock in tests so backoff does not wall-wait.
var clock timeutil.Clock = timeutil.RealClock{}

// isSQLiteBusy reports whether err is a transient sqlite busy/locked
// error worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while it
// returns a busy error. Any other error fails immediately.
func retryOnBusy(fn func() error) error {
	backoff := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		if attempt > 0 {
			clock.Sleep(backoff)
			backoff *= 2
		}
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
	}
	return err
}
