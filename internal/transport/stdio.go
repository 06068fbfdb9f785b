// Package transport serves a dns-mcp Service to MCP clients over stdio or
// streamable HTTP.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/service"
	"github.com/bobmcallan/dns-mcp/internal/tools"
)

// MaxLineBytes is the largest request line the stdio adapter accepts.
const MaxLineBytes = 4 << 20

// StdioAdapter runs the newline-delimited JSON-RPC loop of the MCP stdio
// transport. Requests are handled one at a time and answered in order.
type StdioAdapter struct {
	svc    *service.Service
	logger *common.Logger
}

// NewStdioAdapter creates an adapter serving svc.
func NewStdioAdapter(svc *service.Service, logger *common.Logger) *StdioAdapter {
	return &StdioAdapter{svc: svc, logger: logger}
}

// envelope is the subset of a JSON-RPC message needed to route it. A
// missing id marks a notification.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Serve reads requests from in and writes responses to out until in reaches
// EOF, ctx is cancelled, or reading or writing fails. A clean EOF returns nil.
//
// If in closes while a request is being handled, that request's context is
// cancelled. A call that fails as a result is not answered.
func (a *StdioAdapter) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	done := make(chan struct{})
	var readErr error

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	a.logger.Info().Str("server", a.svc.Name()).Str("version", a.svc.Version()).Msg("stdio transport started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if readErr != nil {
				return fmt.Errorf("failed to read request: %w", readErr)
			}
			a.logger.Info().Msg("stdin closed, stopping stdio transport")
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			reqCtx, reqCancel := context.WithCancel(ctx)
			handled := make(chan struct{})
			go func() {
				select {
				case <-done:
					reqCancel()
				case <-handled:
				}
			}()

			resp, cancelled := a.handle(reqCtx, line)
			close(handled)
			reqCancel()

			if cancelled {
				if err := ctx.Err(); err != nil {
					return err
				}
				a.logger.Warn().Msg("stdin closed during tool call, response dropped")
				continue
			}
			if resp == nil {
				continue
			}
			if err := writeMessage(out, resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

// handle routes one request line. It returns the response to write, or nil
// for notifications, and reports whether a tool call failed after ctx was
// cancelled.
func (a *StdioAdapter) handle(ctx context.Context, line []byte) (mcp.JSONRPCMessage, bool) {
	if !json.Valid(line) {
		a.logger.Warn().Int("bytes", len(line)).Msg("malformed request")
		return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "Parse error", nil), false
	}

	// Batches and bare values are well-formed JSON but not requests.
	var env envelope
	if trimmed := bytes.TrimSpace(line); trimmed[0] != '{' {
		a.logger.Warn().Str("first_byte", string(trimmed[:1])).Msg("request is not a JSON object")
		return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.INVALID_REQUEST, "Invalid request", nil), false
	}
	if err := json.Unmarshal(line, &env); err != nil {
		a.logger.Warn().Str("error", err.Error()).Msg("invalid request")
		return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.INVALID_REQUEST, "Invalid request", nil), false
	}

	if len(env.ID) == 0 {
		a.logger.Debug().Str("method", env.Method).Msg("notification")
		return nil, false
	}

	var id mcp.RequestId
	if err := json.Unmarshal(env.ID, &id); err != nil {
		return mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.INVALID_REQUEST, err.Error(), nil), false
	}
	if env.JSONRPC != mcp.JSONRPC_VERSION || env.Method == "" {
		return mcp.NewJSONRPCError(id, mcp.INVALID_REQUEST, "Invalid request", nil), false
	}

	a.logger.Debug().Str("method", env.Method).Str("id", id.String()).Msg("request")

	switch mcp.MCPMethod(env.Method) {
	case mcp.MethodInitialize:
		var params initializeParams
		if err := decodeParams(env.Params, &params); err != nil {
			return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, err.Error(), nil), false
		}
		return mcp.NewJSONRPCResultResponse(id, a.svc.Initialize(params.ProtocolVersion)), false

	case mcp.MethodPing:
		return mcp.NewJSONRPCResultResponse(id, mcp.EmptyResult{}), false

	case mcp.MethodToolsList:
		return mcp.NewJSONRPCResultResponse(id, mcp.ListToolsResult{Tools: a.svc.ListTools()}), false

	case mcp.MethodToolsCall:
		var params callParams
		if err := decodeParams(env.Params, &params); err != nil {
			return mcp.NewJSONRPCError(id, mcp.INVALID_PARAMS, err.Error(), nil), false
		}
		result, err := a.svc.Invoke(ctx, params.Name, params.Arguments)
		if err != nil {
			return mcp.NewJSONRPCError(id, tools.ErrorCode(err), err.Error(), tools.ErrorData(err)), ctx.Err() != nil && errors.Is(err, ctx.Err())
		}
		return mcp.NewJSONRPCResultResponse(id, result), false

	default:
		return mcp.NewJSONRPCError(id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("Method not found: %s", env.Method), nil), false
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func writeMessage(out io.Writer, msg mcp.JSONRPCMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	n, err := out.Write(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	return err
}

