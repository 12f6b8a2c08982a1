package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")

	// deposit
	ErrOutOfRange       = errors.New("toUint64_outOfBounds")
	ErrUnknownRegistry  = errors.New("unknown asset registry")
	ErrAlreadyInCustody = errors.New("asset already in custody")
	ErrAssetNotHeld     = errors.New("asset not held by the auction house")

	// lookup, matches ErrNotFound
	ErrAuctionNotFound error = &wrapError{"Auction does not exist.", ErrNotFound}

	// bid
	ErrAuctionInactive = errors.New("Auction is not active.")
	ErrBidTooLow       = errors.New("Bid too low.")
	ErrRefundFailed    = errors.New("Refund failed.")

	// settle
	ErrNotComplete     = errors.New("Auction not complete.")
	ErrAlreadySettled  = errors.New("Auction already settled.")
	ErrTransferFailed  = errors.New("asset transfer failed")
	ErrInvalidReceiver = errors.New("receiver rejected tokens")

	// funds
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRecipientRejected = errors.New("recipient cannot accept funds")
)

// wrapError keeps its own message while matching err with errors.Is
type wrapError struct {
	msg string
	err error
}

func (e *wrapError) Error() string {
	return e.msg
}

func (e *wrapError) Unwrap() error {
	return e.err
}
