/**
 * @description
 * Error taxonomy for trade admission and settlement.
 * All are recoverable caller errors: the trade is rejected with no partial
 * execution and the caller may resubmit. Store-level failures are never
 * wrapped into these; they propagate as-is.
 *
 * @dependencies
 * - standard "errors"
 */

package portfolio

import "errors"

var (
	// ErrInsufficientFunds rejects a buy whose total cost exceeds cash
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares rejects a sell exceeding the held quantity
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInvalidInput rejects malformed order fields before any state read
	ErrInvalidInput = errors.New("invalid input")
)
