package tools

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func lookupSchema() Schema {
	return Schema{
		Name:        "dns_lookup",
		Description: "Perform DNS lookup for a domain name",
		Fields: []Field{
			{Name: "domain", Type: TypeString, Required: true, MinLength: 1, Description: "The domain name to lookup"},
		},
	}
}

func TestSchema_MCPTool(t *testing.T) {
	tool := lookupSchema().MCPTool()

	if tool.Name != "dns_lookup" {
		t.Errorf("expected name dns_lookup, got %s", tool.Name)
	}
	if tool.Description != "Perform DNS lookup for a domain name" {
		t.Errorf("unexpected description %q", tool.Description)
	}
	if tool.InputSchema.Type != "object" {
		t.Errorf("expected object input schema, got %s", tool.InputSchema.Type)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "domain" {
		t.Errorf("expected required [domain], got %v", tool.InputSchema.Required)
	}

	prop, ok := tool.InputSchema.Properties["domain"].(map[string]any)
	if !ok {
		t.Fatalf("expected domain property, got %v", tool.InputSchema.Properties)
	}
	if prop["type"] != "string" {
		t.Errorf("expected string type, got %v", prop["type"])
	}
	if prop["description"] != "The domain name to lookup" {
		t.Errorf("unexpected property description %v", prop["description"])
	}
	if prop["minLength"] != 1 {
		t.Errorf("expected minLength 1, got %v", prop["minLength"])
	}
}

func TestSchema_MCPToolFieldTypes(t *testing.T) {
	s := Schema{
		Name: "typed",
		Fields: []Field{
			{Name: "n", Type: TypeNumber},
			{Name: "i", Type: TypeInteger},
			{Name: "b", Type: TypeBoolean},
			{Name: "a", Type: TypeArray},
			{Name: "o", Type: TypeObject},
			{Name: "s", Type: TypeString},
		},
	}
	props := s.MCPTool().InputSchema.Properties

	want := map[string]string{"n": "number", "i": "number", "b": "boolean", "a": "array", "o": "object", "s": "string"}
	for name, typ := range want {
		prop, ok := props[name].(map[string]any)
		if !ok {
			t.Errorf("missing property %s", name)
			continue
		}
		if prop["type"] != typ {
			t.Errorf("property %s: expected type %s, got %v", name, typ, prop["type"])
		}
	}
}

func TestSchema_ValidateAcceptsDecodedJSON(t *testing.T) {
	s := Schema{
		Name: "mixed",
		Fields: []Field{
			{Name: "domain", Type: TypeString, Required: true, MinLength: 1},
			{Name: "limit", Type: TypeInteger},
			{Name: "ratio", Type: TypeNumber},
			{Name: "verbose", Type: TypeBoolean},
			{Name: "types", Type: TypeArray},
			{Name: "opts", Type: TypeObject},
		},
	}

	var args map[string]any
	raw := `{"domain":"example.com","limit":5,"ratio":0.5,"verbose":true,"types":["A","MX"],"opts":{"x":1}}`
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		t.Fatal(err)
	}

	if err := s.Validate(args); err != nil {
		t.Errorf("expected valid arguments, got %v", err)
	}
	if err := s.Validate(map[string]any{"domain": "example.com"}); err != nil {
		t.Errorf("optional fields may be omitted, got %v", err)
	}
}

func TestSchema_ValidateRejections(t *testing.T) {
	s := Schema{
		Name: "mixed",
		Fields: []Field{
			{Name: "domain", Type: TypeString, Required: true, MinLength: 1},
			{Name: "limit", Type: TypeInteger},
			{Name: "code", Type: TypeString, MinLength: 3},
		},
	}

	tests := []struct {
		name   string
		args   map[string]any
		field  string
		reason string
	}{
		{"missing", map[string]any{}, "domain", "missing"},
		{"empty", map[string]any{"domain": ""}, "domain", "must not be empty"},
		{"not a string", map[string]any{"domain": true}, "domain", "expected string, got boolean"},
		{"fractional integer", map[string]any{"domain": "a", "limit": 1.5}, "limit", "expected integer"},
		{"short string", map[string]any{"domain": "a", "code": "ab"}, "code", "at least 3"},
		{"unknown", map[string]any{"domain": "a", "extra": 1.0}, "extra", "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.args)
			var invalid *InvalidArgumentsError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidArgumentsError, got %v", err)
			}
			if invalid.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, invalid.Field)
			}
			if !strings.Contains(invalid.Reason, tt.reason) {
				t.Errorf("expected reason containing %q, got %q", tt.reason, invalid.Reason)
			}
		})
	}
}
