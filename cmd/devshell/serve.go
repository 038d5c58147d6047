// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"devshell-cli/internal/sshserver"

	"github.com/spf13/cobra"
)

var (
	serveHost  string
	servePort  int
	serveShell string

	// serveCmd exposes the environment registry over SSH.
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the environment registry over SSH",
		Long: `Serve the environment registry over SSH.

Remote sessions authenticate with devshell-issued tokens. A session with
no command lists the registered environments; a session with an
environment name activates it, with the activation's exit code becoming
the SSH exit status.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "address to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (0 = auto-select)")
	serveCmd.Flags().StringVar(&serveShell, "shell", "/bin/sh", "shell for interactive sessions")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, cfg, err := loadRegistry(cmd.Context())
	if err != nil {
		return err
	}

	srvCfg := sshserver.DefaultServerConfig()
	srvCfg.Host = sshserver.HostAddress(serveHost)
	srvCfg.Port = sshserver.ListenPort(servePort)
	srvCfg.DefaultShell = serveShell
	if err := srvCfg.Validate(); err != nil {
		return err
	}

	srv := sshserver.New(srvCfg, reg, cfg)
	if err := srv.Start(cmd.Context()); err != nil {
		return err
	}

	info, err := srv.GetConnectionInfo("serve-cli")
	if err != nil {
		_ = srv.Stop()
		return err
	}

	fmt.Printf("%s Serving %d environment(s) on %s\n",
		SuccessStyle.Render("✓"), reg.Len(), srv.Address())
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Connect with:"))
	fmt.Printf("  ssh -p %d %s@%s <environment>\n", info.Port, info.User, info.Host)
	fmt.Printf("  %s %s\n", VerboseStyle.Render("token:"), info.Token)

	// Block until interrupted or the server fails on its own.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		fmt.Println()
		fmt.Println(SubtitleStyle.Render("Shutting down..."))
		return srv.Stop()
	case err, ok := <-srv.Err():
		_ = srv.Stop()
		if ok && err != nil {
			return err
		}
		return nil
	case <-cmd.Context().Done():
		return srv.Stop()
	}
}
