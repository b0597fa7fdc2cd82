package application

import "expvar"

// Counters are exported under /debug/vars when the debug module is enabled.
var (
	usersCreated      = expvar.NewInt("ledger_users_created")
	templatesEnrolled = expvar.NewInt("ledger_templates_enrolled")
	attendanceMarked  = expvar.NewInt("ledger_attendance_marked")
	batchesRejected   = expvar.NewInt("ledger_batches_rejected")
	storeFailures     = expvar.NewInt("ledger_store_failures")
	eventsPublished   = expvar.NewInt("ledger_events_published")
	eventsFailed      = expvar.NewInt("ledger_events_failed")
)
