// Package mcp provides an MCP (Model Context Protocol) server adapter for udirag.
// It lets AI assistants ask grounded questions and retrieve passages from the
// indexed UDI corpus.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// ErrMissingRetrieverService is returned when the retriever service is not provided.
var ErrMissingRetrieverService = errors.New("mcp: retriever service is required")
