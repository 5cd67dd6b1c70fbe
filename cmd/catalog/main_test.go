package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/travelexperts/catalog/internal/gateway"
	"github.com/travelexperts/catalog/internal/product"
	"github.com/travelexperts/catalog/internal/testutil"
	"github.com/travelexperts/catalog/internal/twin"
)

func TestParseArgs(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "")
	tests := []struct {
		name    string
		raw     []string
		cmd     string
		args    []string
		opts    options
	}{
		{"empty", nil, "", nil, options{}},
		{"plain", []string{"list"}, "list", []string{}, options{}},
		{"flags before", []string{"--config", "c.yaml", "--base-url", "http://h:1/", "add", "Tour"}, "add", []string{"Tour"}, options{configPath: "c.yaml", baseURL: "http://h:1/"}},
		{"flags after", []string{"update", "3", "Tour", "--verbose", "--base-url=http://h:2/"}, "update", []string{"3", "Tour"}, options{baseURL: "http://h:2/", verbose: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, opts := parseArgs(tt.raw)
			if cmd != tt.cmd {
				t.Errorf("expected command %q, got %q", tt.cmd, cmd)
			}
			if strings.Join(args, "|") != strings.Join(tt.args, "|") {
				t.Errorf("expected args %v, got %v", tt.args, args)
			}
			if opts != tt.opts {
				t.Errorf("expected options %+v, got %+v", tt.opts, opts)
			}
		})
	}
}

func TestParseArgsConfigEnv(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "/etc/catalog.yaml")
	_, _, opts := parseArgs([]string{"list"})
	if opts.configPath != "/etc/catalog.yaml" {
		t.Errorf("expected env config path, got %q", opts.configPath)
	}
}

func setupApp(t *testing.T) (*app, *twin.Server, *bytes.Buffer) {
	t.Helper()
	t.Setenv("CATALOG_BASE_URL", "")
	t.Setenv("CATALOG_TIMEOUT", "")

	tw := twin.NewWithLogger(&twin.Config{Name: "cli-test"}, testutil.DiscardLogger())
	srv := httptest.NewServer(tw)
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	a, err := newApp(options{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		baseURL:    srv.URL + "/",
	}, &out, &errOut)
	if err != nil {
		t.Fatalf("newApp() error: %v", err)
	}
	return a, tw, &out
}

func TestCommandsAgainstTwin(t *testing.T) {
	a, tw, out := setupApp(t)
	ctx := context.Background()

	steps := [][]string{
		{"add", "Tour", "A"},
		{"add", "Tour B"},
		{"update", "1", "Tour", "A+"},
		{"delete", "2"},
	}
	for _, s := range steps {
		if err := a.run(ctx, s[0], s[1:], nil); err != nil {
			t.Fatalf("%v: %v", s, err)
		}
	}

	got := tw.Store.List()
	if len(got) != 1 || got[0] != (product.Product{ID: 1, Name: "Tour A+"}) {
		t.Errorf("unexpected twin state: %+v", got)
	}

	out.Reset()
	if err := a.run(ctx, "list", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Tour A+") || !strings.Contains(out.String(), "NAME") {
		t.Errorf("unexpected list output:\n%s", out.String())
	}
}

func TestCommandErrors(t *testing.T) {
	a, _, _ := setupApp(t)
	ctx := context.Background()

	if err := a.run(ctx, "delete", []string{"abc"}, nil); !errors.Is(err, product.ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
	if err := a.run(ctx, "add", nil, nil); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if err := a.run(ctx, "frobnicate", nil, nil); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	err := a.run(ctx, "delete", []string{"99"}, nil)
	if code, ok := gateway.IsStatus(err); !ok || code != 404 {
		t.Errorf("expected 404 status error, got %v", err)
	}
}

func TestTwinCommands(t *testing.T) {
	a, tw, out := setupApp(t)
	ctx := context.Background()

	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(`{"products":[{"ProductId":4,"ProdName":"Seeded"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := a.run(ctx, "twin", []string{"health"}, nil); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := a.run(ctx, "twin", []string{"seed", seed}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n := tw.Store.Count(); n != 1 {
		t.Errorf("expected 1 seeded product, got %d", n)
	}
	if err := a.run(ctx, "list", nil, nil); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := a.run(ctx, "twin", []string{"requests"}, nil); err != nil {
		t.Fatalf("requests: %v", err)
	}
	if !strings.Contains(out.String(), "/products") {
		t.Errorf("expected /products in request log, got:\n%s", out.String())
	}

	if err := a.run(ctx, "twin", []string{"reset"}, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n := tw.Store.Count(); n != 0 {
		t.Errorf("expected empty store after reset, got %d", n)
	}
	if err := a.run(ctx, "twin", nil, nil); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestUICommand(t *testing.T) {
	a, tw, out := setupApp(t)
	tw.Store.Create("Tour A")

	if err := a.run(context.Background(), "ui", nil, strings.NewReader("quit\n")); err != nil {
		t.Fatalf("ui: %v", err)
	}
	if !strings.Contains(out.String(), "== Products ==") {
		t.Errorf("expected a rendered frame, got:\n%s", out.String())
	}
}

func TestUICommandAppliesPipedInput(t *testing.T) {
	a, tw, _ := setupApp(t)

	if err := a.run(context.Background(), "ui", nil, strings.NewReader("add Piped Tour\n")); err != nil {
		t.Fatalf("ui: %v", err)
	}
	got := tw.Store.List()
	if len(got) != 1 || got[0].Name != "Piped Tour" {
		t.Errorf("expected the piped add to reach the twin, got %+v", got)
	}
}

func TestNewAppRejectsBadBaseURL(t *testing.T) {
	t.Setenv("CATALOG_BASE_URL", "")
	t.Setenv("CATALOG_TIMEOUT", "")
	var out bytes.Buffer
	_, err := newApp(options{configPath: filepath.Join(t.TempDir(), "c.yaml"), baseURL: "not a url"}, &out, &out)
	if err == nil {
		t.Fatal("expected error for relative base URL")
	}
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("CATALOG_BASE_URL", "")
	t.Setenv("CATALOG_TIMEOUT", "")
	path := filepath.Join(t.TempDir(), "catalog", "config.yaml")
	opts := options{configPath: path}
	var out bytes.Buffer

	if err := cmdConfig(opts, []string{"set", "base_url", "http://10.0.2.2:3000/"}, &out); err != nil {
		t.Fatalf("set base_url: %v", err)
	}
	if err := cmdConfig(opts, []string{"set", "timeout", "4s"}, &out); err != nil {
		t.Fatalf("set timeout: %v", err)
	}

	// An env override shows in reads but is never written back.
	t.Setenv("CATALOG_TIMEOUT", "9s")
	if err := cmdConfig(opts, []string{"set", "verbose", "true"}, &out); err != nil {
		t.Fatalf("set verbose: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 4s") || !strings.Contains(string(data), "base_url: http://10.0.2.2:3000/") {
		t.Errorf("unexpected file contents:\n%s", data)
	}

	out.Reset()
	if err := cmdConfig(opts, []string{"get", "timeout"}, &out); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "9s" {
		t.Errorf("expected env timeout in get, got %q", out.String())
	}

	out.Reset()
	if err := cmdConfig(opts, nil, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"SETTING", "http://10.0.2.2:3000/", "verbose      true", path} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected show output to contain %q, got:\n%s", want, out.String())
		}
	}

	if err := cmdConfig(opts, []string{"set", "colour", "blue"}, &out); err == nil {
		t.Error("expected error for unknown setting")
	}
	if err := cmdConfig(opts, []string{"set", "base_url"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if err := cmdConfig(opts, []string{"frobnicate"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestHint(t *testing.T) {
	if h := hint(&gateway.TransportError{Op: "list products", Err: errors.New("connection refused")}, "http://h:1"); !strings.Contains(h, "http://h:1") {
		t.Errorf("expected transport hint naming the base URL, got %q", h)
	}
	if h := hint(&gateway.StatusError{Op: "delete product", StatusCode: 404}, "http://h:1"); !strings.Contains(h, "catalog list") {
		t.Errorf("expected not-found hint, got %q", h)
	}
	if h := hint(&gateway.StatusError{Op: "delete product", StatusCode: 500}, "http://h:1"); h != "" {
		t.Errorf("expected no hint for 500, got %q", h)
	}
}
