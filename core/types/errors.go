package types

import "errors"

// ErrorKind classifies oracle failures for callers and monitoring.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindValidation
	KindConsensus
	KindProof
	KindState
)

// String returns the lowercase kind name used in logs and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindConsensus:
		return "consensus"
	case KindProof:
		return "proof"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a named oracle failure with a fixed kind. Sentinels are compared
// with errors.Is; wrapped context does not change the kind.
type Error struct {
	kind ErrorKind
	msg  string
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the failure class.
func (e *Error) Kind() ErrorKind { return e.kind }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.kind
	}
	return KindUnknown
}

// Authorization errors.
var (
	ErrCallerIsNotWhitelisted  = newError(KindAuthorization, "oracle: caller is not whitelisted")
	ErrCallerIsNotOwner        = newError(KindAuthorization, "oracle: caller is not the owner")
	ErrCallerIsNotPauser       = newError(KindAuthorization, "oracle: caller is not pauser")
	ErrCallerIsNotUnpauser     = newError(KindAuthorization, "oracle: caller is not unpauser")
	ErrCallerIsNotFeedDeployer = newError(KindAuthorization, "oracle: caller is not feed deployer")
	ErrCallerIsNotFeedManager  = newError(KindAuthorization, "oracle: caller is not feed manager")
)

// Validation errors.
var (
	ErrInvalidAddress       = newError(KindValidation, "oracle: invalid address")
	ErrInvalidInput         = newError(KindValidation, "oracle: invalid input")
	ErrValidatorSetTooSmall = newError(KindValidation, "oracle: validator set too small")
	ErrDuplicatedAddresses  = newError(KindValidation, "oracle: duplicated addresses")
	ErrVotingPowerIsZero    = newError(KindValidation, "oracle: voting power is zero")
	ErrInvalidPublicKey     = newError(KindValidation, "oracle: invalid validator public key")
	ErrInvalidLeaf          = newError(KindValidation, "oracle: invalid leaf payload")
)

// Consensus errors.
var (
	ErrInvalidEventRoot            = newError(KindConsensus, "oracle: invalid event root")
	ErrInsufficientVotingPower     = newError(KindConsensus, "oracle: insufficient voting power")
	ErrSignatureVerificationFailed = newError(KindConsensus, "oracle: signature verification failed")
	ErrSignaturePairingFailed      = newError(KindConsensus, "oracle: signature pairing failed")
)

// Proof errors.
var (
	ErrInvalidProof = newError(KindProof, "oracle: invalid merkle proof")
)

// State errors.
var (
	ErrFeedNotSupported          = newError(KindState, "oracle: feed not supported")
	ErrValidatorIndexOutOfBounds = newError(KindState, "oracle: validator index out of bounds")
	ErrPaused                    = newError(KindState, "oracle: paused")
)
