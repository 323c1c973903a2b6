// Package controlplane implements the runtime control plane: a JSON-RPC 2.0
// style dispatcher over (topology_id, node_id, model_tag_or_class,
// operation) tuples, a multi-producer/single-consumer call queue drained at
// epoch boundaries by the Manager, and an optional go-chi/chi HTTP
// transport for out-of-process callers.
package controlplane

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only valid JSON-RPC version string.
const JSONRPCVersion = "2.0"

// Request is a JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification (no id).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

func newParseError(id any) Response     { return errResponse(id, CodeParseError, "Parse error") }
func newInvalidRequest(id any) Response { return errResponse(id, CodeInvalidRequest, "Invalid Request") }

func newMethodNotFound(id any, method string) Response {
	return errResponse(id, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", method))
}

func newInvalidParams(id any, detail string) Response {
	return errResponse(id, CodeInvalidParams, fmt.Sprintf("Invalid params: %s", detail))
}

func newInternalError(id any, detail string) Response {
	return errResponse(id, CodeInternalError, fmt.Sprintf("Internal error: %s", detail))
}

func newResult(id any, result any) (Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("marshal result: %w", err)
	}
	return Response{JSONRPC: JSONRPCVersion, ID: id, Result: data}, nil
}

// parseRequest decodes a raw JSON message into a Request, returning an
// error response if the message is malformed.
func parseRequest(raw []byte) (Request, *Response) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		resp := newParseError(nil)
		return Request{}, &resp
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		resp := newInvalidRequest(req.ID)
		return Request{}, &resp
	}
	return req, nil
}

func errResponse(id any, code int, message string) Response {
	return Response{JSONRPC: JSONRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
}
