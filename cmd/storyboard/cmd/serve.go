package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storage diagnostic panel on localhost",
	Long:  "Starts the diagnostic panel. Clear and invalidate actions require STORYBOARD_DEVTOOLS=true.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.StartPanel(); err != nil {
		return err
	}

	fmt.Printf("⚡ storage panel at %s\n", a.WebServer.URL())
	if !cfg.DevTools {
		fmt.Printf("  %sread-only: set STORYBOARD_DEVTOOLS=true to enable clear/invalidate%s\n", colorYellow, colorReset)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n⚡ shutting down...")
	return nil
}
