package replay

import "errors"

var (
	// ErrUnexpectedStatus is returned when the service answers with a
	// status the client cannot act on.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotSettled is returned when the session did not process every
	// posted batch within Config.Settle.
	ErrNotSettled = errors.New("session did not settle")
)
