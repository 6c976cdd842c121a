package zeroex

import "errors"

var (
	// ErrUnsupportedNetwork is returned for a network without a 0x deployment
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrNoSigner is returned when signing without a configured private key
	ErrNoSigner = errors.New("no private key configured")

	// ErrNoStore is returned when persisting without a configured store path
	ErrNoStore = errors.New("no order store configured")

	// ErrNoRPC is returned for chain reads without a configured RPC endpoint
	ErrNoRPC = errors.New("no rpc endpoint configured")
)

// InvalidParamError represents an invalid parameter error with context
type InvalidParamError struct {
	Message string
}

func (e *InvalidParamError) Error() string {
	return e.Message
}
