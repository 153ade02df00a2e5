package gateway

import "errors"

// Sentinel error kinds a Transaction's result can wrap.
// ErrGatewayBusy, ErrTransactionTimeout and transport failures
// (transport.ErrClosed or any other transport.ErrTransport, retried on
// a reopened command session) are retryable; ErrGatewayRejected is
// terminal.
var (
	ErrGatewayBusy        = errors.New("gateway busy")
	ErrGatewayRejected    = errors.New("gateway rejected request")
	ErrTransactionTimeout = errors.New("transaction timed out")

	// ErrRetryExhausted wraps the last retryable error once a
	// Transaction's attempt budget is spent, so callers can tell "busy
	// forever" apart from "no response ever" by unwrapping it.
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrWorkerClosed is returned by Submit once the worker has begun
	// shutting down.
	ErrWorkerClosed = errors.New("gateway worker closed")
)
