package store

import "github.com/fxamacker/cbor/v2"

// RPC method names understood by the remote drivers and servers.
const (
	MethodInsert = "insert"
	MethodUpdate = "update"
	MethodDelete = "delete"
	MethodFind   = "find"
	MethodQuery  = "query"
)

// RPC error codes carried in RPCError.Code.
const (
	CodeNotFound   = 404
	CodeIDInUse    = 409
	CodeBadRequest = 400
	CodeInternal   = 500
)

// RPCRequest is the envelope the remote drivers send, one per call.
type RPCRequest struct {
	ID     string `cbor:"id"`
	Method string `cbor:"method"`
	Params []any  `cbor:"params"`
}

// RPCResponse is the envelope a server answers with. Exactly one of
// Result and Error is set.
type RPCResponse struct {
	ID     string          `cbor:"id"`
	Result cbor.RawMessage `cbor:"result,omitempty"`
	Error  *RPCError       `cbor:"error,omitempty"`
}

type RPCError struct {
	Code    int    `cbor:"code"`
	Message string `cbor:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// Err maps an RPC error to the driver sentinel it represents, so
// errors.Is works the same against remote and local backends.
func (e *RPCError) Err() error {
	switch e.Code {
	case CodeNotFound:
		return ErrNotFound
	case CodeIDInUse:
		return ErrIDInUse
	default:
		return e
	}
}
