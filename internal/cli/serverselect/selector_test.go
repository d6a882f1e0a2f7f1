package serverselect

import (
	"testing"

	"github.com/shopadmin-dev/shopadmin/internal/cli/config"
	"github.com/shopadmin-dev/shopadmin/internal/cli/userconfig"
)

func testConfig() *config.Config {
	return &config.Config{Servers: []config.Server{
		{Alias: "production", URL: "https://admin.shop.example"},
		{Alias: "local", URL: "http://localhost:8000"},
	}}
}

func TestResolveServer_AliasWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	if err := userconfig.SetSelectedServer("https://admin.shop.example"); err != nil {
		t.Fatalf("failed to seed selection: %v", err)
	}

	server, err := ResolveServer(testConfig(), "local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "local" {
		t.Errorf("expected 'local', got '%s'", server.Alias)
	}
}

func TestResolveServer_SelectedServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	if err := userconfig.SetSelectedServer("http://localhost:8000/"); err != nil {
		t.Fatalf("failed to seed selection: %v", err)
	}

	server, err := ResolveServer(testConfig(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "local" {
		t.Errorf("expected 'local', got '%s'", server.Alias)
	}
}

func TestResolveServer_SingleServerIsRemembered(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	cfg := &config.Config{Servers: []config.Server{{Alias: "only", URL: "http://localhost:8000"}}}

	// A stale selection is dropped
	if err := userconfig.SetSelectedServer("https://gone.example"); err != nil {
		t.Fatalf("failed to seed selection: %v", err)
	}

	server, err := ResolveServer(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "only" {
		t.Errorf("expected 'only', got '%s'", server.Alias)
	}

	selected, _ := userconfig.GetSelectedServer()
	if selected != "http://localhost:8000" {
		t.Errorf("expected selection to be saved, got '%s'", selected)
	}
}

func TestGetServerByURLOrAlias(t *testing.T) {
	cfg := testConfig()

	if server, err := GetServerByURLOrAlias(cfg, "production"); err != nil || server.URL != "https://admin.shop.example" {
		t.Errorf("lookup by alias failed: %v", err)
	}
	if server, err := GetServerByURLOrAlias(cfg, "http://localhost:8000"); err != nil || server.Alias != "local" {
		t.Errorf("lookup by URL failed: %v", err)
	}
	if _, err := GetServerByURLOrAlias(cfg, "staging"); err == nil {
		t.Error("expected error for unknown server")
	}
}
