// Package tools holds the tool abstraction, argument schemas and the
// registry that routes invocations to tool handlers.
package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
)

// Field types understood by Validate. They mirror JSON Schema primitive types.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Tool is a named, schema-described capability that can be invoked remotely.
type Tool interface {
	Schema() Schema
	Invoke(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)
}

// Schema describes a tool and its input.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// Field describes one input argument.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string
	// MinLength applies to string fields only.
	MinLength int
}

// MCPTool renders the schema as an MCP tool definition.
func (s Schema) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(s.Description)}
	for _, f := range s.Fields {
		opts = append(opts, fieldOption(f))
	}
	return mcp.NewTool(s.Name, opts...)
}

// fieldOption maps a Field to the matching mcp-go tool option.
func fieldOption(f Field) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if f.Description != "" {
		opts = append(opts, mcp.Description(f.Description))
	}
	if f.Required {
		opts = append(opts, mcp.Required())
	}

	switch f.Type {
	case TypeNumber, TypeInteger:
		return mcp.WithNumber(f.Name, opts...)
	case TypeBoolean:
		return mcp.WithBoolean(f.Name, opts...)
	case TypeArray:
		return mcp.WithArray(f.Name, opts...)
	case TypeObject:
		return mcp.WithObject(f.Name, opts...)
	default:
		if f.MinLength > 0 {
			opts = append(opts, mcp.MinLength(f.MinLength))
		}
		return mcp.WithString(f.Name, opts...)
	}
}

// Validate checks args against the schema. Unknown fields, missing required
// fields, type mismatches and too-short strings are rejected with an
// *InvalidArgumentsError naming the offending field.
func (s Schema) Validate(args map[string]any) error {
	known := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = f
	}

	for name := range args {
		if _, ok := known[name]; !ok {
			return &InvalidArgumentsError{Field: name, Reason: "unknown field"}
		}
	}

	for _, f := range s.Fields {
		v, ok := args[f.Name]
		if !ok || v == nil {
			if f.Required {
				return &InvalidArgumentsError{Field: f.Name, Reason: "required field is missing"}
			}
			continue
		}
		if err := f.check(v); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) check(v any) error {
	mismatch := func() error {
		return &InvalidArgumentsError{
			Field:  f.Name,
			Reason: fmt.Sprintf("expected %s, got %s", f.Type, jsonType(v)),
		}
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		if utf8.RuneCountInString(s) < f.MinLength {
			if f.MinLength == 1 {
				return &InvalidArgumentsError{Field: f.Name, Reason: "must not be empty"}
			}
			return &InvalidArgumentsError{Field: f.Name, Reason: fmt.Sprintf("must be at least %d characters", f.MinLength)}
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return mismatch()
		}
	case TypeInteger:
		n, ok := v.(float64)
		if !ok || n != float64(int64(n)) {
			return mismatch()
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return mismatch()
		}
	case TypeArray:
		if _, ok := v.([]any); !ok {
			return mismatch()
		}
	case TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return mismatch()
		}
	}
	return nil
}

// jsonType names the JSON type of a value decoded by encoding/json.
func jsonType(v any) string {
	switch v.(type) {
	case string:
		return TypeString
	case float64:
		return TypeNumber
	case bool:
		return TypeBoolean
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
