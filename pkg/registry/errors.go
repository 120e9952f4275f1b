package registry

import "errors"

var (
	// ErrRegistryClosed is returned when submitting after Close.
	ErrRegistryClosed = errors.New("registry is closed")
	// ErrEmptySQL is returned for empty or whitespace-only SQL.
	ErrEmptySQL = errors.New("sql must not be empty")
	// ErrResultDecode marks fetch failures caused by undecodable result rows.
	// Connection implementations wrap decode problems with it so the registry
	// can record kind=parse_result instead of kind=internal.
	ErrResultDecode = errors.New("result rows could not be decoded")
)
