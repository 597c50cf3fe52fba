package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/storyboard/internal/app"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows resolved STORYBOARD_* settings, store paths and whether the panel is running. Does not open the store.",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := app.NewPaths(cfg.Dir)

	store := paths.StoreFile(cfg.Backend)
	if store == "" {
		store = "(in memory)"
	}
	quota := "off"
	if cfg.QuotaKB > 0 {
		quota = fmt.Sprintf("%d KB", cfg.QuotaKB)
	}
	panel := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if portData, err := os.ReadFile(paths.PortFile); err == nil {
		panel = fmt.Sprintf("%s✓ http://localhost:%s%s", colorGreen, strings.TrimSpace(string(portData)), colorReset)
	}

	fmt.Printf("%s⚡ storyboard config%s\n", colorBold, colorReset)
	fmt.Printf("  Dir:        %s\n", cfg.Dir)
	fmt.Printf("  Backend:    %s\n", cfg.Backend)
	fmt.Printf("  Store:      %s\n", store)
	fmt.Printf("  Version:    %s\n", cfg.StorageVersion)
	fmt.Printf("  Quota:      %s\n", quota)
	fmt.Printf("  DevTools:   %t\n", cfg.DevTools)
	fmt.Printf("  Panel:      %s\n", panel)
	return nil
}
