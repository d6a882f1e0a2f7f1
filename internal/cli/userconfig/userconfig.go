// Package userconfig keeps per-user CLI state that does not belong in the
// project's shopadmin.yaml: the selected server, the email last used to log
// in to each server and a preferred page size for list commands.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "shopadmin"
	configFileName = "config.yaml"

	// MaxPageSize is the largest page the API will serve
	MaxPageSize = 100
)

// UserConfig is the content of $XDG_CONFIG_HOME/shopadmin/config.yaml
// (~/.config/shopadmin/config.yaml by default)
type UserConfig struct {
	SelectedServerURL string `yaml:"selected_server_url,omitempty"`
	PageSize          int    `yaml:"page_size,omitempty"`
	// LoginEmails maps a server origin to the email last used to log in there
	LoginEmails map[string]string `yaml:"login_emails,omitempty"`
}

// Path returns the location of the user config file
func Path() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		base = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Load reads the user config. A missing file is an empty config.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save replaces the user config file. It holds login emails, so it is only
// readable by the user, and it is written through a temp file so a crash
// never leaves half a file behind.
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), configFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// Update loads the config, applies fn and saves the result
func Update(fn func(cfg *UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer records the server commands talk to by default. An empty
// URL clears the selection.
func SetSelectedServer(serverURL string) error {
	return Update(func(cfg *UserConfig) {
		cfg.SelectedServerURL = serverURL
	})
}

// GetSelectedServer returns the selected server URL, or "" when none is set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServerURL, nil
}

// RememberLoginEmail stores the email that just logged in to origin
func RememberLoginEmail(origin, email string) error {
	return Update(func(cfg *UserConfig) {
		if cfg.LoginEmails == nil {
			cfg.LoginEmails = map[string]string{}
		}
		cfg.LoginEmails[originKey(origin)] = email
	})
}

// LoginEmail returns the email last used for origin, or ""
func LoginEmail(origin string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.LoginEmails[originKey(origin)], nil
}

// DefaultPageSize returns the preferred page size for list commands, or 0 to
// let the API decide. Values above MaxPageSize are capped.
func (c *UserConfig) DefaultPageSize() int {
	switch {
	case c.PageSize <= 0:
		return 0
	case c.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return c.PageSize
}

func originKey(origin string) string {
	return strings.TrimRight(strings.ToLower(origin), "/")
}
