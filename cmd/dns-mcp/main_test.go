package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// executeCommand runs a fresh command tree with the given args and stdin,
// capturing stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var outBuf, errBuf bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeConfig writes a quiet config pointing at providerURL and returns its path.
func writeConfig(t *testing.T, providerURL string) string {
	t.Helper()
	content := `
[provider]
base_url = "` + providerURL + `"
timeout = "5s"

[logging]
level = "error"
outputs = []
`
	path := filepath.Join(t.TempDir(), "dns-mcp.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newProvider(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body + " for " + r.URL.Query().Get("q")))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "dns-mcp version ") {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestLookupCommand(t *testing.T) {
	provider := newProvider(t, "1.2.3.4")
	cfgPath := writeConfig(t, provider.URL)

	stdout, _, err := executeCommand(t, "", "lookup", "example.com", "--config", cfgPath)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stdout != "1.2.3.4 for example.com" {
		t.Errorf("expected provider body verbatim, got %q", stdout)
	}
}

func TestLookupCommand_EnvOverridesProvider(t *testing.T) {
	provider := newProvider(t, "5.6.7.8")
	cfgPath := writeConfig(t, "http://localhost:1")
	t.Setenv("DNS_MCP_PROVIDER_URL", provider.URL)

	stdout, _, err := executeCommand(t, "", "lookup", "example.org", "-c", cfgPath)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stdout != "5.6.7.8 for example.org" {
		t.Errorf("expected env provider to be used, got %q", stdout)
	}
}

func TestLookupCommand_EmptyDomain(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:1")

	_, stderr, err := executeCommand(t, "", "lookup", "", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for empty domain")
	}
	if !strings.Contains(stderr, "domain") {
		t.Errorf("expected stderr to name the field, got %q", stderr)
	}
}

func TestLookupCommand_RequiresDomain(t *testing.T) {
	if _, _, err := executeCommand(t, "", "lookup"); err == nil {
		t.Error("expected error when domain argument is missing")
	}
}

func TestServeStdio(t *testing.T) {
	provider := newProvider(t, "1.2.3.4")
	cfgPath := writeConfig(t, provider.URL)

	stdin := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	for _, args := range [][]string{
		{"--config", cfgPath},
		{"serve", "--config", cfgPath, "--transport", "stdio"},
	} {
		stdout, _, err := executeCommand(t, stdin, args...)
		if err != nil {
			t.Fatalf("%v: serve failed: %v", args, err)
		}
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		if len(lines) != 2 {
			t.Fatalf("%v: expected 2 responses, got %d: %q", args, len(lines), stdout)
		}
		if !strings.Contains(lines[1], `"name":"dns_lookup"`) {
			t.Errorf("%v: expected tools/list to include dns_lookup, got %s", args, lines[1])
		}
	}
}

func TestServe_InvalidTransport(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:1")

	_, stderr, err := executeCommand(t, "", "serve", "--config", cfgPath, "--transport", "carrier-pigeon")
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(stderr, "unsupported transport") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestServe_MissingConfigFile(t *testing.T) {
	_, _, err := executeCommand(t, "", "serve", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestConfigSearchPaths(t *testing.T) {
	paths := configSearchPaths()
	if len(paths) == 0 {
		t.Fatal("expected search paths")
	}
	found := false
	for _, p := range paths {
		if p == configFileName {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in search paths, got %v", configFileName, paths)
	}
}

func TestLookupCommand_TracingEnabled(t *testing.T) {
	provider := newProvider(t, "1.2.3.4")
	cfgPath := writeConfig(t, provider.URL)
	exports := make(chan string, 8)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exports <- r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	t.Setenv("DNS_MCP_OTEL_ENABLED", "true")
	t.Setenv("DNS_MCP_OTEL_ENDPOINT", collector.URL+"/v1/traces")
	restoreTracerProvider(t)

	stdout, _, err := executeCommand(t, "", "lookup", "example.com", "--config", cfgPath)
	if err != nil {
		t.Fatalf("lookup with tracing failed: %v", err)
	}
	if stdout != "1.2.3.4 for example.com" {
		t.Errorf("expected provider body verbatim, got %q", stdout)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("expected SDK tracer provider to be installed, got %T", otel.GetTracerProvider())
	}

	// Spans are flushed to the collector before the command returns.
	select {
	case got := <-exports:
		if got != "POST /v1/traces" {
			t.Errorf("unexpected export request %q", got)
		}
	default:
		t.Error("expected the dispatch span to be exported on exit")
	}
}

func TestLookupCommand_TracingWithoutEndpoint(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost:1")
	t.Setenv("DNS_MCP_OTEL_ENABLED", "true")

	_, stderr, err := executeCommand(t, "", "lookup", "example.com", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(stderr, "telemetry") {
		t.Errorf("expected telemetry error on stderr, got %q", stderr)
	}
}

func restoreTracerProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}
