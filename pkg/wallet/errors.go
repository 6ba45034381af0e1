// Package wallet provides the chain-facing primitives of the rescue: key
// management, address validation, nonce tracking, block streams and thin
// helpers over an Ethereum JSON-RPC endpoint.
package wallet

import (
	"errors"
	"fmt"
)

// Error codes for various wallet operations
const (
	// ErrCodeInvalidNetwork indicates the specified network is not supported
	ErrCodeInvalidNetwork = "INVALID_NETWORK"
	// ErrCodeInvalidAddress indicates an invalid blockchain address format
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	// ErrCodeInvalidPrivateKey indicates an invalid or malformed private key
	ErrCodeInvalidPrivateKey = "INVALID_PRIVATE_KEY"
	// ErrCodeGasEstimationFailed indicates gas estimation failed
	ErrCodeGasEstimationFailed = "GAS_ESTIMATION_FAILED"
	// ErrCodeRPCError indicates an RPC connection or call failed
	ErrCodeRPCError = "RPC_ERROR"
	// ErrCodeTimeout indicates operation timed out
	ErrCodeTimeout = "TIMEOUT"
	// ErrCodeInvalidABI indicates invalid or malformed contract ABI
	ErrCodeInvalidABI = "INVALID_ABI"
	// ErrCodeContractError indicates contract interaction failed
	ErrCodeContractError = "CONTRACT_ERROR"
	// ErrCodeSigningFailed indicates a transaction could not be signed
	ErrCodeSigningFailed = "SIGNING_FAILED"
)

// WalletError represents a wallet-specific error with additional context
// about the error type, message, underlying error and network.
type WalletError struct {
	Code    string      // Error code identifying the type of error
	Message string      // Human readable error message
	Err     error       // Underlying error if any
	Network NetworkType // Network where the error occurred
}

// Error implements the error interface for WalletError.
func (e *WalletError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Network != "" {
		msg += fmt.Sprintf(" on network %s", e.Network)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *WalletError) Unwrap() error {
	return e.Err
}

// NewWalletError creates a new WalletError with the given parameters.
func NewWalletError(code string, message string, err error, network NetworkType) *WalletError {
	return &WalletError{
		Code:    code,
		Message: message,
		Err:     err,
		Network: network,
	}
}

// IsWalletError reports whether err, or any error it wraps, is a
// WalletError with the given code.
func IsWalletError(err error, code string) bool {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code == code
	}
	return false
}
