package rpc

import "github.com/eth2030/feedoracle/core/types"

// Error codes returned for oracle failures, one per error kind.
const (
	ErrCodeInternal      = -32000
	ErrCodeAuthorization = -32001
	ErrCodeValidation    = -32002
	ErrCodeConsensus     = -32003
	ErrCodeProof         = -32004
	ErrCodeState         = -32005
)

// apiError carries the error kind to the client as a JSON-RPC error code.
type apiError struct {
	err error
}

func (e *apiError) Error() string { return e.err.Error() }

func (e *apiError) Unwrap() error { return e.err }

// ErrorCode implements rpc.Error.
func (e *apiError) ErrorCode() int {
	switch types.KindOf(e.err) {
	case types.KindAuthorization:
		return ErrCodeAuthorization
	case types.KindValidation:
		return ErrCodeValidation
	case types.KindConsensus:
		return ErrCodeConsensus
	case types.KindProof:
		return ErrCodeProof
	case types.KindState:
		return ErrCodeState
	default:
		return ErrCodeInternal
	}
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return &apiError{err: err}
}
