package domain

import "errors"

var (
	ErrCapacityExceeded      = errors.New("event is at capacity")
	ErrDuplicateRegistration = errors.New("user already holds an active registration for this event")
	ErrNotOwner              = errors.New("user is not the current holder")
	ErrNotTransferable       = errors.New("registration cannot be transferred")
	ErrAlreadyTransferring   = errors.New("a transfer offer is already pending for this registration")
	ErrNotPending            = errors.New("not pending")
	ErrExpired               = errors.New("transfer offer has expired")
	ErrSelfTransfer          = errors.New("cannot transfer a registration to its current holder")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyCheckedIn      = errors.New("registration already checked in")

	// ErrStoreConflict signals a lost optimistic-concurrency race. It is the
	// only kind callers may retry.
	ErrStoreConflict = errors.New("store conflict, retry")

	ErrInvalidInput = errors.New("invalid input")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrCapacityExceeded, "CAPACITY_EXCEEDED"},
	{ErrDuplicateRegistration, "DUPLICATE_REGISTRATION"},
	{ErrNotOwner, "NOT_OWNER"},
	{ErrNotTransferable, "NOT_TRANSFERABLE"},
	{ErrAlreadyTransferring, "ALREADY_TRANSFERRING"},
	{ErrNotPending, "NOT_PENDING"},
	{ErrExpired, "EXPIRED"},
	{ErrSelfTransfer, "SELF_TRANSFER"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrAlreadyCheckedIn, "ALREADY_CHECKED_IN"},
	{ErrStoreConflict, "STORE_CONFLICT"},
	{ErrInvalidInput, "INVALID_INPUT"},
}

// Code returns the stable machine-readable code for err, or "INTERNAL" when
// err is not part of the taxonomy.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}
