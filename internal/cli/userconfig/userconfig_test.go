package userconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSelectedServerRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	selected, err := GetSelectedServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != "" {
		t.Errorf("expected no selection, got '%s'", selected)
	}

	if err := SetSelectedServer("https://admin.shop.example"); err != nil {
		t.Fatalf("failed to save selection: %v", err)
	}

	selected, err = GetSelectedServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != "https://admin.shop.example" {
		t.Errorf("expected saved URL, got '%s'", selected)
	}

	path, err := Path()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(home, ".config", "shopadmin", "config.yaml") {
		t.Errorf("unexpected config path '%s'", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestPathHonoursXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := Path()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "shopadmin", "config.yaml") {
		t.Errorf("unexpected config path '%s'", path)
	}
}

func TestLoginEmailPerOrigin(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := SetSelectedServer("https://admin.shop.example"); err != nil {
		t.Fatalf("failed to save selection: %v", err)
	}
	if err := RememberLoginEmail("https://Admin.Shop.Example/", "owner@shop.example"); err != nil {
		t.Fatalf("failed to remember email: %v", err)
	}
	if err := RememberLoginEmail("http://localhost:8000", "dev@shop.test"); err != nil {
		t.Fatalf("failed to remember email: %v", err)
	}

	tests := []struct {
		origin   string
		expected string
	}{
		{"https://admin.shop.example", "owner@shop.example"},
		{"http://localhost:8000/", "dev@shop.test"},
		{"https://staging.shop.example", ""},
	}
	for _, tt := range tests {
		email, err := LoginEmail(tt.origin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if email != tt.expected {
			t.Errorf("LoginEmail(%s): expected '%s', got '%s'", tt.origin, tt.expected, email)
		}
	}

	// Remembering emails must not drop other settings
	selected, err := GetSelectedServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != "https://admin.shop.example" {
		t.Errorf("expected selection to survive, got '%s'", selected)
	}
}

func TestDefaultPageSize(t *testing.T) {
	tests := []struct {
		configured int
		expected   int
	}{
		{0, 0},
		{-5, 0},
		{25, 25},
		{MaxPageSize, MaxPageSize},
		{500, MaxPageSize},
	}
	for _, tt := range tests {
		cfg := UserConfig{PageSize: tt.configured}
		if got := cfg.DefaultPageSize(); got != tt.expected {
			t.Errorf("page_size %d: expected %d, got %d", tt.configured, tt.expected, got)
		}
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "shopadmin", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("page_size: [not a number\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected malformed config to be rejected")
	}
}
