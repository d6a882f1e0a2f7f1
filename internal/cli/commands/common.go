package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
	"github.com/shopadmin-dev/shopadmin/internal/cli/config"
	"github.com/shopadmin-dev/shopadmin/internal/cli/serverselect"
	"github.com/shopadmin-dev/shopadmin/internal/credstore"
	"github.com/shopadmin-dev/shopadmin/internal/guard"
	"github.com/shopadmin-dev/shopadmin/internal/session"
)

// Option overrides how commands reach the API
type Option func(*env)

// WithServer skips config lookup and talks to server
func WithServer(server *config.Server) Option {
	return func(e *env) {
		e.server = server
	}
}

// WithStore keeps credentials in store instead of the configured backend
func WithStore(store credstore.Store) Option {
	return func(e *env) {
		e.store = store
	}
}

// WithHTTPClient sets the HTTP client used by the session
func WithHTTPClient(httpClient *http.Client) Option {
	return func(e *env) {
		e.httpClient = httpClient
	}
}

// WithLogger sets the logger handed to the session and API client
func WithLogger(logger zerolog.Logger) Option {
	return func(e *env) {
		e.logger = &logger
	}
}

// env carries what every command needs to build an authenticated session
type env struct {
	server     *config.Server
	store      credstore.Store
	httpClient *http.Client
	logger     *zerolog.Logger
	guard      *guard.Guard
}

func newEnv(opts []Option) *env {
	e := &env{guard: guard.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// log returns the injected logger, or the global one configured by the root
// command.
func (e *env) log() zerolog.Logger {
	if e.logger != nil {
		return *e.logger
	}
	return log.Logger
}

// resolve returns the target server and credential store, reading
// shopadmin.yaml for whatever was not injected.
func (e *env) resolve(cmd *cobra.Command) (*config.Server, credstore.Store, func(), error) {
	noop := func() {}
	if e.server != nil && e.store != nil {
		return e.server, e.store, noop, nil
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w\nRun 'shopadmin init <url>' to create a configuration file", err)
	}

	server := e.server
	if server == nil {
		serverAlias, _ := cmd.Flags().GetString("server")
		server, err = serverselect.ResolveServer(cfg, serverAlias)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if _, err := server.Origin(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w. Please edit %s and add a valid URL", err, config.ConfigFileName)
	}

	if e.store != nil {
		return server, e.store, noop, nil
	}

	store, err := credstore.Open(cfg.CredentialStore.Backend, cfg.CredentialStore.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	closeStore := func() {
		if err := credstore.Close(store); err != nil {
			logger := e.log()
			logger.Warn().Err(err).Msg("Failed to close credential store")
		}
	}
	return server, store, closeStore, nil
}

// openSession builds a session manager for the resolved server. onLogout is
// optional.
func (e *env) openSession(cmd *cobra.Command, onLogout func()) (*session.Manager, *config.Server, func(), error) {
	server, store, closeStore, err := e.resolve(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []session.Option{session.WithLogger(e.log())}
	if e.httpClient != nil {
		opts = append(opts, session.WithHTTPClient(e.httpClient))
	}
	if onLogout != nil {
		opts = append(opts, session.WithLogoutHook(onLogout))
	}

	manager, err := session.New(server.URL, store, opts...)
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}

	cleanup := func() {
		manager.Close()
		closeStore()
	}
	return manager, server, cleanup, nil
}

// authorized is an open session for a protected command
type authorized struct {
	api     *client.Client
	manager *session.Manager
	server  *config.Server
	close   func()
}

// authorize opens a session for a protected command. The command is refused,
// and any stale credential cleared, unless an admin is logged in.
func (e *env) authorize(cmd *cobra.Command) (*authorized, error) {
	guarded := false
	onLogout := func() {
		if guarded {
			fmt.Fprintln(cmd.ErrOrStderr(), "Your session has ended. Run 'shopadmin login' to sign in again.")
		}
	}

	manager, server, cleanup, err := e.openSession(cmd, onLogout)
	if err != nil {
		return nil, err
	}

	if err := e.guard.Check(commandPath(cmd), manager); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w\nRun 'shopadmin login' to authenticate with %s (%s)", err, server.Alias, server.URL)
	}
	guarded = true

	return &authorized{
		api:     client.New(manager, client.WithLogger(e.log())),
		manager: manager,
		server:  server,
		close:   cleanup,
	}, nil
}

// commandPath returns the command path without the binary name
func commandPath(cmd *cobra.Command) string {
	var parts []string
	for c := cmd; c.HasParent(); c = c.Parent() {
		parts = append([]string{c.Name()}, parts...)
	}
	return strings.Join(parts, " ")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s'", arg)
	}
	return id, nil
}

// confirm asks a yes/no question unless yes is already set. Without a
// terminal the question cannot be asked and --yes is required.
func confirm(label string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}
