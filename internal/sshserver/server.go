// SPDX-License-Identifier: EPL-2.0

package sshserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"devshell-cli/internal/config"
	"devshell-cli/internal/launcher"
	"devshell-cli/internal/registry"
	"devshell-cli/pkg/envfile"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated ServerState = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is running and accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or encountered a fatal error (terminal state).
	StateFailed
)

type (
	// ServerState represents the lifecycle state of the server.
	ServerState int32

	// Token represents an authentication token for a remote session.
	Token struct {
		Value     TokenValue
		CreatedAt time.Time
		ExpiresAt time.Time
		SessionID string
	}

	// Server serves the environment registry over SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		// Immutable configuration (set at creation, never modified)
		cfg      Config
		registry *registry.Registry
		appCfg   *config.Config

		// State management (atomic for lock-free reads)
		state atomic.Int32

		// Initialized during Start() - protected by stateMu for writes
		stateMu  sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string // Actual bound address (including resolved port)

		// Lifecycle management
		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{} // Closed when server is ready to accept connections
		errCh     chan error    // Receives fatal errors from background goroutines
		lastErr   error         // Stores the last error for State() == StateFailed

		// Token management
		tokens  map[TokenValue]*Token
		tokenMu sync.RWMutex

		logger *log.Logger
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host HostAddress
		// Port is the port to listen on (0 = auto-select)
		Port ListenPort
		// TokenTTL is how long tokens are valid (default: 1 hour)
		TokenTTL time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s)
		ShutdownTimeout time.Duration
		// DefaultShell is the shell for interactive sessions (default: /bin/sh)
		DefaultShell string
		// StartupTimeout is the max time to wait for server to be ready (default: 5s)
		StartupTimeout time.Duration
	}

	// ConnectionInfo contains what a remote session needs to connect.
	ConnectionInfo struct {
		Host     HostAddress
		Port     int
		Token    TokenValue
		User     string
		ExpireAt time.Time
	}
)

// String returns a human-readable representation of the server state.
func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultServerConfig returns a default server configuration.
func DefaultServerConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		TokenTTL:        time.Hour,
		ShutdownTimeout: 10 * time.Second,
		DefaultShell:    "/bin/sh",
		StartupTimeout:  5 * time.Second,
	}
}

// Validate returns nil if the Config is usable, or an InvalidSSHConfigError
// collecting the field errors.
func (c Config) Validate() error {
	var errs []error
	if err := c.Host.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.DefaultShell) == "" {
		errs = append(errs, errors.New("default shell must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidSSHConfigError{FieldErrors: errs}
	}
	return nil
}

// New creates a new SSH server exposing reg's environments.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config, reg *registry.Registry, appCfg *config.Config) *Server {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = "/bin/sh"
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "ssh-server",
	})

	s := &Server{
		cfg:       cfg,
		registry:  reg,
		appCfg:    appCfg,
		tokens:    make(map[TokenValue]*Token),
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1), // Buffered so goroutines don't block
		logger:    logger,
	}
	s.state.Store(int32(StateCreated))

	return s
}

// Start starts the SSH server and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start() returns nil, use Err() to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	// Check for already-cancelled context BEFORE any setup.
	// This prevents a race condition where the serve goroutine could transition
	// to StateRunning before the cancelled context is detected in the select.
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.lastErr
	default:
	}

	// Transition: Created -> Starting
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		currentState := ServerState(s.state.Load())
		return fmt.Errorf("cannot start server in state %s", currentState)
	}

	// Create internal context for lifecycle management
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Setup timeout for startup
	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	// Initialize listener
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.stateMu.Unlock()

	// Create SSH server
	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(
			activeterm.Middleware(),
			s.sessionMiddleware(),
		),
	)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.transitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.srv = srv
	s.stateMu.Unlock()

	// Start the serve goroutine
	s.wg.Add(1)
	go s.serve()

	// Start token cleanup goroutine
	s.wg.Add(1)
	go s.cleanupExpiredTokens()

	// Wait for server to be ready or fail
	select {
	case <-s.startedCh:
		// Server is ready
		s.logger.Info("SSH server started", "address", s.addr, "environments", s.registry.Len())
		return nil

	case err := <-s.errCh:
		// Server failed during startup
		s.transitionToFailed(err)
		return err

	case <-startupCtx.Done():
		// Startup timeout or caller cancelled
		s.cancel() // Stop any background work
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastErr
	}
}

// Stop gracefully stops the SSH server.
// It blocks until all connections are closed or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	// Only proceed if we're in a stoppable state
	for {
		currentState := ServerState(s.state.Load())
		switch currentState {
		case StateStopped, StateFailed:
			return nil // Already stopped
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return nil // Never started
			}
			continue // State changed, retry
		case StateStopping:
			// Wait for ongoing stop to complete
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			// Transition to Stopping
			if !s.state.CompareAndSwap(int32(currentState), int32(StateStopping)) {
				continue // State changed, retry
			}
			// Proceed with shutdown
			return s.doStop()
		default:
			return fmt.Errorf("unknown server state: %d", currentState)
		}
	}
}

// Err returns a channel that receives fatal server errors.
// Use this to monitor for unexpected failures after Start() returns.
// The channel is closed when the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current server state.
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// IsRunning returns whether the server is currently running and accepting connections.
// This is a convenience method equivalent to State() == StateRunning.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Address returns the server's bound address (host:port).
// Blocks until the server has started or failed.
// Returns empty string if server never started or failed.
func (s *Server) Address() string {
	select {
	case <-s.startedCh:
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// Port returns the server's listening port.
// Blocks until the server has started or failed.
// Returns 0 if server never started or failed.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0 // Invalid port string
	}
	return port
}

// Host returns the server's configured host address.
func (s *Server) Host() HostAddress {
	return s.cfg.Host
}

// Wait blocks until the server stops (either gracefully or due to error).
// Returns the error if the server failed, nil otherwise.
func (s *Server) Wait() error {
	s.wg.Wait()

	state := s.State()
	if state == StateFailed {
		return s.lastErr
	}
	return nil
}

// GenerateToken creates a new authentication token for a session.
func (s *Server) GenerateToken(sessionID string) (*Token, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	tokenValue := TokenValue(hex.EncodeToString(tokenBytes))
	now := time.Now()

	token := &Token{
		Value:     tokenValue,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
		SessionID: sessionID,
	}

	s.tokenMu.Lock()
	s.tokens[tokenValue] = token
	s.tokenMu.Unlock()

	s.logger.Debug("Generated token", "sessionID", sessionID)

	return token, nil
}

// ValidateToken checks if a token is valid.
func (s *Server) ValidateToken(tokenValue TokenValue) (*Token, bool) {
	s.tokenMu.RLock()
	token, exists := s.tokens[tokenValue]
	s.tokenMu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(token.ExpiresAt) {
		s.RevokeToken(tokenValue)
		return nil, false
	}

	return token, true
}

// RevokeToken invalidates a token.
func (s *Server) RevokeToken(tokenValue TokenValue) {
	s.tokenMu.Lock()
	delete(s.tokens, tokenValue)
	s.tokenMu.Unlock()
}

// RevokeTokensForSession revokes all tokens issued for a session.
func (s *Server) RevokeTokensForSession(sessionID string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	for tokenValue, token := range s.tokens {
		if token.SessionID == sessionID {
			delete(s.tokens, tokenValue)
		}
	}
}

// GetConnectionInfo returns connection information for a session.
// Returns an error if the server is not running.
func (s *Server) GetConnectionInfo(sessionID string) (*ConnectionInfo, error) {
	if !s.IsRunning() {
		return nil, fmt.Errorf("SSH server is not running (state: %s)", s.State())
	}

	token, err := s.GenerateToken(sessionID)
	if err != nil {
		return nil, err
	}

	return &ConnectionInfo{
		Host:     s.cfg.Host,
		Port:     s.Port(),
		Token:    token.Value,
		User:     "devshell",
		ExpireAt: token.ExpiresAt,
	}, nil
}

// serve runs the SSH server and handles errors.
func (s *Server) serve() {
	defer s.wg.Done()

	// Transition: Starting -> Running (signals readiness)
	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.stateMu.Lock()
	srv := s.srv
	listener := s.listener
	s.stateMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		// Ignore expected shutdown errors
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}

		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
			// Error channel full, log instead
			s.logger.Error("SSH server error (channel full)", "error", err)
		}
	}
}

// doStop performs the actual shutdown logic.
func (s *Server) doStop() error {
	if s.cancel != nil {
		s.cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.stateMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() // Best-effort cleanup during shutdown
	}
	s.stateMu.Unlock()

	s.wg.Wait()

	s.state.Store(int32(StateStopped))
	s.logger.Info("SSH server stopped")

	close(s.errCh)

	return shutdownErr
}

// transitionToFailed sets the server state to Failed and stores the error.
func (s *Server) transitionToFailed(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case s.errCh <- err:
	default:
	}
}

// cleanupExpiredTokens periodically removes expired tokens.
func (s *Server) cleanupExpiredTokens() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tokenMu.Lock()
			now := time.Now()
			for tokenValue, token := range s.tokens {
				if now.After(token.ExpiresAt) {
					delete(s.tokens, tokenValue)
				}
			}
			s.tokenMu.Unlock()
		}
	}
}

// passwordHandler handles password authentication using tokens.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	token, valid := s.ValidateToken(TokenValue(password))
	if !valid {
		s.logger.Warn("Invalid token authentication attempt", "user", ctx.User())
		return false
	}

	ctx.SetValue("token", token)
	ctx.SetValue("sessionID", token.SessionID)

	s.logger.Debug("Token authentication successful", "sessionID", token.SessionID)
	return true
}

// publicKeyHandler rejects all public key authentication.
// We only want token-based authentication.
func (s *Server) publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return false
}

// sessionMiddleware dispatches SSH sessions: no command lists the registry,
// a single argument activates the named environment with the session's
// streams, and the launcher's exit code becomes the SSH exit status.
func (s *Server) sessionMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			args := sess.Command()

			if len(args) == 0 {
				if _, _, isPty := sess.Pty(); isPty {
					s.runInteractiveShell(sess)
					return
				}
				s.listEnvironments(sess)
				return
			}

			s.activateEnvironment(sess, envfile.EnvironmentName(args[0]))
		}
	}
}

// listEnvironments prints every registered environment to the session.
func (s *Server) listEnvironments(sess ssh.Session) {
	for _, env := range s.registry.Environments() {
		if env.Description != "" {
			fmt.Fprintf(sess, "%s\t%s\n", env.Name, env.Description)
		} else {
			fmt.Fprintf(sess, "%s\n", env.Name)
		}
	}
	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

// activateEnvironment runs the launcher for the requested name against the
// session's streams. Unknown names yield the launcher's usual stderr
// message and exit 1; session exit codes pass through unchanged.
func (s *Server) activateEnvironment(sess ssh.Session, name envfile.EnvironmentName) {
	_, _, isPty := sess.Pty()

	l := launcher.New(s.registry, s.appCfg)
	l.Stdin = sess
	l.Stdout = sess
	l.Stderr = sess.Stderr()
	l.Interactive = isPty
	l.Logger = s.logger

	code := l.Run(sess.Context(), name)
	_ = sess.Exit(int(code)) //nolint:errcheck // Terminal operation; error non-critical
}

// runInteractiveShell starts the default shell for a PTY session, with the
// registered environment names exported so the remote user can pick one.
func (s *Server) runInteractiveShell(sess ssh.Session) {
	shell := s.cfg.DefaultShell

	cmd := exec.CommandContext(sess.Context(), shell)
	cmd.Env = append(os.Environ(), sess.Environ()...)
	cmd.Env = append(cmd.Env, "DEVSHELL_ENVS="+joinNames(s.registry))

	ptyReq, winCh, isPty := sess.Pty()
	if isPty {
		cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))
	}

	// Start the command with a pseudo-terminal
	f, err := startPty(cmd)
	if err != nil {
		_, _ = fmt.Fprintf(sess.Stderr(), "Error starting shell: %v\n", err)
		_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
		return
	}
	defer func() { _ = f.Close() }() // PTY cleanup; error non-critical

	// Handle window size changes
	go func() {
		for win := range winCh {
			setWinsize(f, win.Width, win.Height)
		}
	}()

	// Copy I/O
	go func() {
		_, _ = copyBuffer(f, sess) //nolint:errcheck // I/O copy; errors are non-recoverable
	}()
	_, _ = copyBuffer(sess, f) //nolint:errcheck // I/O copy; errors are non-recoverable

	// Wait for command to complete
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			_ = sess.Exit(exitErr.ExitCode()) //nolint:errcheck // Terminal operation; error non-critical
			return
		}
	}
	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

func joinNames(reg *registry.Registry) string {
	names := reg.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ":")
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
