package pool

import "errors"

// Error definitions for zero-tolerance error handling. Every fault aborts the
// enclosing operation; there is no local recovery.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotCreated        = errors.New("pool not created")
	ErrAlreadyCreated    = errors.New("pool already created")
	ErrBounds            = errors.New("value outside configured bounds")
	ErrRoundingTooCoarse = errors.New("amount too small to represent")
	ErrSlippage          = errors.New("amount violates caller limit")
	ErrTransferFailed    = errors.New("token transfer failed")
	ErrNotBound          = errors.New("token not bound")
)
