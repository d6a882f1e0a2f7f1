package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "shopadmin.yaml"

// Server represents a back-office API the CLI can talk to
type Server struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}

// Origin returns scheme://host of the server URL
func (s *Server) Origin() (string, error) {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", s.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", s.URL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: host is required", s.URL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// CredentialStore selects where tokens are kept
type CredentialStore struct {
	Backend string `yaml:"backend,omitempty"` // keyring (default), sqlite, memory
	Path    string `yaml:"path,omitempty"`    // sqlite database file
}

// Config represents the CLI configuration file
type Config struct {
	Servers         []Server        `yaml:"servers"`
	CredentialStore CredentialStore `yaml:"credential_store,omitempty"`
}

// DefaultConfig returns a default configuration with an example server
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias: "local",
				URL:   "http://localhost:8000",
			},
		},
	}
}

// FindConfigFile searches for shopadmin.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative sqlite paths are relative to the config file
	if cfg.CredentialStore.Path != "" && !filepath.IsAbs(cfg.CredentialStore.Path) {
		cfg.CredentialStore.Path = filepath.Join(filepath.Dir(path), cfg.CredentialStore.Path)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that aliases are unique and URLs usable
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for i := range c.Servers {
		server := &c.Servers[i]
		if server.Alias == "" {
			return fmt.Errorf("server %d has no alias", i+1)
		}
		if seen[server.Alias] {
			return fmt.Errorf("duplicate server alias '%s'", server.Alias)
		}
		seen[server.Alias] = true

		if _, err := server.Origin(); err != nil {
			return fmt.Errorf("server '%s': %w", server.Alias, err)
		}
	}
	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its URL, ignoring a trailing slash
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	want := strings.TrimSuffix(rawURL, "/")
	for i := range c.Servers {
		if strings.TrimSuffix(c.Servers[i].URL, "/") == want {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found", rawURL)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
