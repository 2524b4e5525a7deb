package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// JSON-RPC style codes carried in error payloads.
const (
	CodeInvalidParams = -32602
	CodeAuth          = -32001
	CodePermission    = -32003
	CodeNotFound      = -32004
	CodeRateLimited   = -32029
	CodeServer        = -32000
)

type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *errorData `json:"data,omitempty"`
}

type errorData struct {
	Suggestion string `json:"suggestion"`
}

// errorCode maps the domain error taxonomy to a payload code.
func errorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConflict):
		return CodeInvalidParams
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrNotConfigured):
		return CodeAuth
	case errors.Is(err, domain.ErrPermission):
		return CodePermission
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return CodeRateLimited
	}
	return CodeServer
}

// failure turns err into an error result.
func failure(err error) *mcp.CallToolResult {
	body := errorBody{Code: errorCode(err), Message: err.Error()}
	if hint := domain.Hint(err); hint != "" {
		body.Data = &errorData{Suggestion: hint}
	}
	res := textResult(errorPayload{Error: body})
	res.IsError = true
	return res
}

// list returns {"status":"success","count":N,key:items}.
func list[T any](key string, items []T) *mcp.CallToolResult {
	if items == nil {
		items = []T{}
	}
	return textResult(map[string]any{
		"status": "success",
		"count":  len(items),
		key:      items,
	})
}

// object returns {"status":"success",key:v}.
func object(key string, v any) *mcp.CallToolResult {
	return textResult(map[string]any{"status": "success", key: v})
}

func textResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = fmt.Appendf(nil, `{"error":{"code":%d,"message":%q}}`, CodeServer, err.Error())
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}
}

func invalidParam(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, err)
}
