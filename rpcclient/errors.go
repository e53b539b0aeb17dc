package rpcclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/monerosim/monerosim/btcjson"
)

// Kind classifies an rpcclient error into a small taxonomy, from
// transport failures up through well-formed protocol errors that
// callers recognize as specific conditions.
type Kind int

const (
	// KindTransport covers connect/timeout failures that never reached
	// the remote endpoint.
	KindTransport Kind = iota
	// KindMalformed covers a response that doesn't parse as the
	// expected JSON-RPC envelope or result shape.
	KindMalformed
	// KindProtocol covers a well-formed error envelope returned by the
	// remote endpoint, not otherwise recognized.
	KindProtocol
	// KindSemantic covers a protocol error recognized by callers as a
	// specific, actionable condition.
	KindSemantic
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed"
	case KindProtocol:
		return "protocol"
	case KindSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// SemanticCode enumerates the semantic sub-kinds callers branch on
// explicitly.
type SemanticCode int

const (
	SemNone SemanticCode = iota
	SemWalletExists
	SemWalletNotFound
	SemNotEnoughMoney
	SemInvalidAddress
	SemWalletNotReady
)

// Error is the one error type every rpcclient call returns on
// failure. Callers branch on Kind (and, for KindSemantic, Code2) rather
// than on string matching.
type Error struct {
	Kind Kind
	// Code is the remote JSON-RPC error code, set for KindProtocol and
	// KindSemantic.
	Code int
	// Message is the human-readable error text.
	Message string
	// Code2 carries the recognized semantic sub-kind for KindSemantic.
	Code2 SemanticCode

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpcclient: %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying transport/parse error, if any, for
// errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// classifyProtocolError turns a raw *btcjson.RPCError into the typed
// Error taxonomy by matching the remote message text. Monero's RPC
// surface does not assign stable distinct codes to these conditions,
// so message matching is the only reliable signal available.
func classifyProtocolError(method string, rpcErr *btcjson.RPCError) *Error {
	msg := strings.ToLower(rpcErr.Message)

	e := &Error{
		Kind:    KindProtocol,
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
		cause:   rpcErr,
	}

	switch {
	case strings.Contains(msg, "already exists"):
		e.Kind = KindSemantic
		e.Code2 = SemWalletExists
	case strings.Contains(msg, "wallet not found") || strings.Contains(msg, "no wallet file"):
		e.Kind = KindSemantic
		e.Code2 = SemWalletNotFound
	case strings.Contains(msg, "not enough money") || strings.Contains(msg, "insufficient"):
		e.Kind = KindSemantic
		e.Code2 = SemNotEnoughMoney
	case strings.Contains(msg, "invalid address"):
		e.Kind = KindSemantic
		e.Code2 = SemInvalidAddress
	case strings.Contains(msg, "not ready") || strings.Contains(msg, "not synchronized") || strings.Contains(msg, "is daemon trusted"):
		e.Kind = KindSemantic
		e.Code2 = SemWalletNotReady
	}

	return e
}

// IsSemantic reports whether err is, or wraps, an rpcclient *Error
// carrying the given semantic code.
func IsSemantic(err error, code SemanticCode) bool {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Kind == KindSemantic && rpcErr.Code2 == code
}

// IsTransport reports whether err is, or wraps, a transport-classified
// rpcclient *Error.
func IsTransport(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Kind == KindTransport
}
