package common

import "sync"

// In-process guard for payment initiation: check-then-create on pending
// records must not race within one API instance. Across instances the partial
// unique index on payment_records does the same job.
var (
	initMu    sync.Mutex
	initLocks = make(map[uint]struct{})
)

func AcquireBookingInitLock(bookingID uint) bool {
	initMu.Lock()
	defer initMu.Unlock()
	if _, held := initLocks[bookingID]; held {
		return false
	}
	initLocks[bookingID] = struct{}{}
	return true
}

func ReleaseBookingInitLock(bookingID uint) {
	initMu.Lock()
	defer initMu.Unlock()
	delete(initLocks, bookingID)
}
