package cmd

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/hedns/certbot-he-hook/internal/certbot"
	"github.com/hedns/certbot-he-hook/internal/config"
	"github.com/hedns/certbot-he-hook/internal/dyndns"
)

// fakeResolver implements propagation.Resolver for hook tests
type fakeResolver struct {
	calls  int
	values []string
}

func (f *fakeResolver) LookupTXT(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.values, nil
}

// captureLog redirects the standard logger for one test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultValue:  config.DefaultTXTValue,
		Password:      "secret",
		RetryInterval: 1,
		RetryTimeout:  1,
	}
}

func TestExecuteHookPublishSuccess(t *testing.T) {
	logs := captureLog(t)

	var gotTxt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTxt = r.PostFormValue("txt")
		_, _ = w.Write([]byte("good 127.0.0.1"))
	}))
	defer server.Close()

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123"}
	resolver := &fakeResolver{values: []string{"abc123"}}

	err := executeHook(inv, testConfig(), dyndns.NewClient(dyndns.WithEndpoint(server.URL)), resolver)
	if err != nil {
		t.Fatalf("executeHook failed: %v", err)
	}

	if gotTxt != "abc123" {
		t.Errorf("Published txt = %q, want %q", gotTxt, "abc123")
	}
	if resolver.calls < 1 {
		t.Error("Expected the poller to query DNS on the publish path")
	}
	if strings.Contains(logs.String(), "rejected") {
		t.Errorf("Expected no rejection diagnostic, got: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "confirmed in DNS") {
		t.Errorf("Expected propagation confirmation, got: %s", logs.String())
	}
}

func TestExecuteHookProviderRejection(t *testing.T) {
	logs := captureLog(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("badauth"))
	}))
	defer server.Close()

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123"}
	resolver := &fakeResolver{values: []string{"abc123"}}

	// Legacy contract: rejection is a diagnostic, not an error
	err := executeHook(inv, testConfig(), dyndns.NewClient(dyndns.WithEndpoint(server.URL)), resolver)
	if err != nil {
		t.Fatalf("Expected nil error without strict_exit, got %v", err)
	}

	if resolver.calls != 0 {
		t.Errorf("Expected no DNS polling after rejection, got %d queries", resolver.calls)
	}
	if !strings.Contains(logs.String(), "_acme-challenge.example.com") {
		t.Errorf("Diagnostic missing record name: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "badauth") {
		t.Errorf("Diagnostic missing raw response: %s", logs.String())
	}
}

func TestExecuteHookProviderRejectionStrictExit(t *testing.T) {
	captureLog(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("badauth"))
	}))
	defer server.Close()

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123"}
	cfg := testConfig()
	cfg.StrictExit = true

	err := executeHook(inv, cfg, dyndns.NewClient(dyndns.WithEndpoint(server.URL)), &fakeResolver{})
	if err == nil {
		t.Error("Expected error with strict_exit enabled")
	}
}

func TestExecuteHookCleanup(t *testing.T) {
	logs := captureLog(t)

	var gotTxt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTxt = r.PostFormValue("txt")
		_, _ = w.Write([]byte("nochg 127.0.0.1"))
	}))
	defer server.Close()

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123", Cleanup: true}
	resolver := &fakeResolver{values: []string{"abc123"}}

	cfg := testConfig()
	cfg.RetryTimeout = 300 // polling config must not matter on cleanup

	err := executeHook(inv, cfg, dyndns.NewClient(dyndns.WithEndpoint(server.URL)), resolver)
	if err != nil {
		t.Fatalf("executeHook failed: %v", err)
	}

	if gotTxt != config.DefaultTXTValue {
		t.Errorf("Cleanup wrote %q, want the configured default %q", gotTxt, config.DefaultTXTValue)
	}
	if resolver.calls != 0 {
		t.Errorf("Expected no DNS polling on cleanup, got %d queries", resolver.calls)
	}
	if strings.Contains(logs.String(), "rejected") {
		t.Errorf("Expected no rejection diagnostic, got: %s", logs.String())
	}
}

func TestExecuteHookPerRecordPassword(t *testing.T) {
	captureLog(t)

	var gotPassword string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPassword = r.PostFormValue("password")
		_, _ = w.Write([]byte("good 127.0.0.1"))
	}))
	defer server.Close()

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123", Cleanup: true}
	cfg := testConfig()
	cfg.AuthMap = map[string]string{"_acme-challenge.example.com": "per-record"}

	if err := executeHook(inv, cfg, dyndns.NewClient(dyndns.WithEndpoint(server.URL)), &fakeResolver{}); err != nil {
		t.Fatalf("executeHook failed: %v", err)
	}

	if gotPassword != "per-record" {
		t.Errorf("Sent password %q, want the auth_map entry %q", gotPassword, "per-record")
	}
}

func TestExecuteHookTransportError(t *testing.T) {
	captureLog(t)

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // Refuse connections

	inv := &certbot.Invocation{Domain: "example.com", Validation: "abc123"}

	err := executeHook(inv, testConfig(), dyndns.NewClient(dyndns.WithEndpoint(server.URL)), &fakeResolver{})
	if err == nil {
		t.Error("Expected error for transport failure")
	}
}

func TestRunHookRequiresCertbotEnv(t *testing.T) {
	t.Setenv(certbot.EnvDomain, "")
	t.Setenv(certbot.EnvValidation, "")

	if err := runHook(nil, nil); err == nil {
		t.Error("Expected error when certbot variables are missing")
	}
}
