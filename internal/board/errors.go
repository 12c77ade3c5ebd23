package board

import (
	"errors"
	"fmt"
)

// Error classes. Every board error wraps exactly one of these, so callers can
// dispatch with errors.Is without matching message text.
var (
	ErrValidation    = errors.New("validation error")
	ErrState         = errors.New("state error")
	ErrAuthorization = errors.New("authorization error")
	ErrProof         = errors.New("proof error")
)

var (
	ErrUnknownHandle     = fmt.Errorf("%w: unknown request handle", ErrValidation)
	ErrInsufficientValue = fmt.Errorf("%w: deposited value below declared rewards", ErrValidation)
	ErrRewardTooLow      = fmt.Errorf("%w: reward below gas-cost minimum", ErrValidation)
	ErrEmptyResult       = fmt.Errorf("%w: result must not be empty", ErrValidation)
	ErrPayloadTampered   = fmt.Errorf("%w: payload has been tampered with", ErrValidation)
	ErrInclusionLocked   = fmt.Errorf("%w: inclusion reward cannot grow after inclusion", ErrValidation)

	ErrAlreadyClaimed  = fmt.Errorf("%w: one of the listed requests was already claimed", ErrState)
	ErrNotClaimed      = fmt.Errorf("%w: request has not yet been claimed", ErrState)
	ErrAlreadyIncluded = fmt.Errorf("%w: request already included", ErrState)
	ErrNotIncluded     = fmt.Errorf("%w: request not yet included", ErrState)
	ErrAlreadyResulted = fmt.Errorf("%w: request already resulted", ErrState)
	ErrStaleEpoch      = fmt.Errorf("%w: epoch must not move backwards", ErrState)

	ErrBadSignature      = fmt.Errorf("%w: signature does not match public key", ErrAuthorization)
	ErrVRFRejected       = fmt.Errorf("%w: VRF proof verification failed", ErrAuthorization)
	ErrNotElected        = fmt.Errorf("%w: VRF output outside sortition threshold", ErrAuthorization)
	ErrNotActiveReporter = fmt.Errorf("%w: caller is not an active reporter", ErrAuthorization)

	ErrInclusionProofRejected = fmt.Errorf("%w: inclusion proof rejected by relay", ErrProof)
	ErrResultProofRejected    = fmt.Errorf("%w: result proof rejected by relay", ErrProof)
)
