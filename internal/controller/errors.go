package controller

import "errors"

// Error definitions for zero-tolerance error handling
var (
	ErrReentrant      = errors.New("resync already in progress")
	ErrBadLender      = errors.New("callback not from the pending lender")
	ErrNoPendingLoan  = errors.New("no loan pending for this amount")
	ErrShortBalance   = errors.New("borrowed balance not received")
	ErrBadPayload     = errors.New("malformed loan payload")
	ErrCooldownActive = errors.New("weight increase cooldown active")
	ErrCeiling        = errors.New("weight ceiling exceeded")
	ErrNotOwner       = errors.New("caller is not the governance owner")
	ErrParamBounds    = errors.New("parameter outside allowed bounds")
)
