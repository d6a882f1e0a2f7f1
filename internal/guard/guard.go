// Package guard decides which CLI commands need an authenticated admin
// session. Command paths are space separated, without the binary name
// ("orders set-status").
package guard

import (
	"fmt"
	"strings"

	"github.com/shopadmin-dev/shopadmin/internal/session"
)

// Authenticator is the part of the session the guard relies on
type Authenticator interface {
	IsAuthenticated() bool
	Logout()
}

// DefaultProtected lists the command groups that operate on shop data
var DefaultProtected = []string{"dashboard", "products", "orders", "customers", "reviews", "reports", "settings"}

// DefaultPublic lists the commands usable without a session
var DefaultPublic = []string{"login", "logout", "status", "version", "help", "init", "select-server", "completion"}

// Guard matches command paths against protected and public prefixes
type Guard struct {
	protected []string
	public    []string
}

// New creates a guard. A path matches a prefix when it equals the prefix or
// continues it with a further subcommand.
func New(protected, public []string) *Guard {
	return &Guard{
		protected: normalize(protected),
		public:    normalize(public),
	}
}

// Default returns a guard for the standard command tree
func Default() *Guard {
	return New(DefaultProtected, DefaultPublic)
}

// IsPublic reports whether path is reachable without a session
func (g *Guard) IsPublic(path string) bool {
	return matchAny(normalizePath(path), g.public)
}

// IsProtected reports whether path needs a session. Public paths are never
// protected, and the empty path (the bare binary) is protected only when ""
// itself is listed.
func (g *Guard) IsProtected(path string) bool {
	path = normalizePath(path)
	if matchAny(path, g.public) {
		return false
	}
	return matchAny(path, g.protected)
}

// Check lets path run if it is unprotected or auth holds a privileged
// session. Otherwise the session is cleared and an error wrapping
// session.ErrAuthenticationRequired is returned.
func (g *Guard) Check(path string, auth Authenticator) error {
	if !g.IsProtected(path) {
		return nil
	}
	if auth != nil && auth.IsAuthenticated() {
		return nil
	}
	if auth != nil {
		auth.Logout()
	}
	return fmt.Errorf("%s: %w", normalizePath(path), session.ErrAuthenticationRequired)
}

// ShouldSkip reports whether a public entry command such as login can be
// skipped because a privileged session already exists.
func (g *Guard) ShouldSkip(path string, auth Authenticator) bool {
	return g.IsPublic(path) && !g.IsProtected(path) && auth != nil && auth.IsAuthenticated()
}

func matchAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "" {
			// The root only matches itself
			if path == "" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+" ") {
			return true
		}
	}
	return false
}

func normalize(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, normalizePath(p))
	}
	return out
}

func normalizePath(path string) string {
	return strings.Join(strings.Fields(path), " ")
}
