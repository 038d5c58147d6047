// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"devshell-cli/internal/config"
	"devshell-cli/internal/registry"
	"devshell-cli/pkg/envfile"

	"github.com/charmbracelet/log"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	f := &envfile.Envfile{Environments: []envfile.Environment{
		{Name: "python", Packages: []envfile.PackageID{"python3"}},
	}}
	reg, err := registry.New(f)
	if err != nil {
		t.Fatalf("registry.New() returned error: %v", err)
	}

	cfg := DefaultServerConfig()
	cfg.StartupTimeout = 10 * time.Second

	s := New(cfg, reg, config.DefaultConfig())
	s.logger = log.New(io.Discard)
	return s
}

func TestServerStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state ServerState
		want  string
	}{
		{StateCreated, "created"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{StateFailed, "failed"},
		{ServerState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ServerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultServerConfig().Validate(); err != nil {
		t.Errorf("DefaultServerConfig().Validate() = %v, want nil", err)
	}

	bad := Config{Host: "  ", Port: 70000, DefaultShell: ""}
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidSSHConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidSSHConfig", err)
	}
	var cfgErr *InvalidSSHConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatal("error is not *InvalidSSHConfigError")
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("FieldErrors count = %d, want 3", len(cfgErr.FieldErrors))
	}
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if s.State() != StateCreated {
		t.Fatalf("initial state = %s, want created", s.State())
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	if !s.IsRunning() {
		t.Errorf("state after Start() = %s, want running", s.State())
	}
	if s.Address() == "" {
		t.Error("Address() is empty for a running server")
	}
	if s.Port() == 0 {
		t.Error("Port() = 0 for a running server (auto-select should have bound)")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state after Stop() = %s, want stopped", s.State())
	}

	// Stop is idempotent.
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func TestStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Start(ctx); err == nil {
		t.Fatal("Start() with cancelled context returned nil")
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
}

func TestStartTwice(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() returned nil, want state error")
	}
}

func TestStopNeverStarted(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() on never-started server = %v, want nil", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
}

func TestTokenLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	token, err := s.GenerateToken("sess-1")
	if err != nil {
		t.Fatalf("GenerateToken() returned error: %v", err)
	}
	if err := token.Value.Validate(); err != nil {
		t.Errorf("generated token fails validation: %v", err)
	}

	got, valid := s.ValidateToken(token.Value)
	if !valid {
		t.Fatal("ValidateToken() = false for a fresh token")
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", got.SessionID)
	}

	s.RevokeToken(token.Value)
	if _, valid := s.ValidateToken(token.Value); valid {
		t.Error("ValidateToken() = true after revocation")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token, err := s.GenerateToken("sess-exp")
	if err != nil {
		t.Fatalf("GenerateToken() returned error: %v", err)
	}

	s.tokenMu.Lock()
	s.tokens[token.Value].ExpiresAt = time.Now().Add(-time.Minute)
	s.tokenMu.Unlock()

	if _, valid := s.ValidateToken(token.Value); valid {
		t.Error("ValidateToken() = true for an expired token")
	}
	// Expired tokens are removed on validation.
	s.tokenMu.RLock()
	_, stillThere := s.tokens[token.Value]
	s.tokenMu.RUnlock()
	if stillThere {
		t.Error("expired token not removed after failed validation")
	}
}

func TestRevokeTokensForSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	t1, _ := s.GenerateToken("sess-a")
	t2, _ := s.GenerateToken("sess-a")
	t3, _ := s.GenerateToken("sess-b")

	s.RevokeTokensForSession("sess-a")

	if _, valid := s.ValidateToken(t1.Value); valid {
		t.Error("sess-a token 1 still valid")
	}
	if _, valid := s.ValidateToken(t2.Value); valid {
		t.Error("sess-a token 2 still valid")
	}
	if _, valid := s.ValidateToken(t3.Value); !valid {
		t.Error("sess-b token was revoked too")
	}
}

func TestGetConnectionInfoRequiresRunning(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if _, err := s.GetConnectionInfo("sess-1"); err == nil {
		t.Error("GetConnectionInfo() on a stopped server returned nil error")
	}
}

func TestGetConnectionInfoWhileRunning(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	info, err := s.GetConnectionInfo("sess-1")
	if err != nil {
		t.Fatalf("GetConnectionInfo() returned error: %v", err)
	}
	if info.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", info.Host)
	}
	if info.Port == 0 {
		t.Error("Port = 0, want bound port")
	}
	if info.User != "devshell" {
		t.Errorf("User = %q, want devshell", info.User)
	}
	if err := info.Token.Validate(); err != nil {
		t.Errorf("connection token invalid: %v", err)
	}
}

func TestPublicKeyAuthRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if s.publicKeyHandler(nil, nil) {
		t.Error("publicKeyHandler() = true, want all public keys rejected")
	}
}
