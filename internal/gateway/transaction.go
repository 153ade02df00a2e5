package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/transport"
)

// Result is a Transaction's outcome: the accumulated dimension-read
// values on success (possibly empty for a plain ACK), or an error.
type Result struct {
	Values []string
	Err    error
}

// Transaction is one queued request/response exchange on a gateway's
// Command session.
type Transaction struct {
	ID      uuid.UUID
	Request protocol.Message

	ctx    context.Context
	result chan Result
}

// NewTransaction builds a Transaction ready to enqueue. done fires
// exactly once with the final outcome.
func NewTransaction(ctx context.Context, request protocol.Message) *Transaction {
	return &Transaction{
		ID:      uuid.New(),
		Request: request,
		ctx:     ctx,
		result:  make(chan Result, 1),
	}
}

// Done returns a channel that receives the Transaction's single Result.
func (t *Transaction) Done() <-chan Result {
	return t.result
}

func (t *Transaction) complete(r Result) {
	select {
	case t.result <- r:
	default:
	}
}

// isRetryableKind reports whether err is one of the kinds §7 marks
// retryable: GatewayBusy, TransactionTimeout, or a transport failure —
// transport.ErrClosed or any other transport.ErrTransport — (eligible
// once the session has been reopened).
func isRetryableKind(err error) bool {
	return errors.Is(err, ErrGatewayBusy) ||
		errors.Is(err, ErrTransactionTimeout) ||
		errors.Is(err, transport.ErrClosed) ||
		errors.Is(err, transport.ErrTransport)
}
