// Package mcp implements the read/query-oriented Model Context Protocol
// server for tomosona (§6's host RPC surface, the subset the core owns).
// Grounded on the teacher's internal/mcp package: a thin *mcp.Server
// wrapper, typed Input/Output structs per tool, and an error taxonomy
// mapped from the core's structured errors to JSON-RPC error codes.
package mcp

import (
	"context"
	"errors"
	"fmt"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// Error codes for the tomosona MCP surface, following the teacher's
// custom-code-plus-standard-JSON-RPC-code layout.
const (
	ErrCodeNoWorkspace         = -32001
	ErrCodeEmbedderUnavailable = -32002
	ErrCodeTimeout             = -32003
	ErrCodeIOError             = -32004

	ErrCodeInvalidParams = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError builds an invalid-params error with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// MapError converts a core error into an MCPError, branching on the
// structured Kind from internal/errors rather than string matching.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	if kind, ok := tomoerrors.KindOf(err); ok {
		switch kind {
		case tomoerrors.NoWorkspace:
			return &MCPError{Code: ErrCodeNoWorkspace, Message: err.Error()}
		case tomoerrors.EmbedderUnavailable:
			return &MCPError{Code: ErrCodeEmbedderUnavailable, Message: err.Error()}
		case tomoerrors.InvalidPath, tomoerrors.InvalidName, tomoerrors.AlreadyExists, tomoerrors.ReservedRoot:
			return &MCPError{Code: ErrCodeInvalidParams, Message: err.Error()}
		case tomoerrors.IoError:
			return &MCPError{Code: ErrCodeIOError, Message: err.Error()}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: err.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}
