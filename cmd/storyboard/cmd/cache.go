package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/corey/storyboard/internal/domain/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	statusOutput string
	clearForce   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and invalidate local storage",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show version, key count and approximate size",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear app storage, keeping session and theme",
	Long:  "Removes every key except the allow-list (user, theme) and rewrites the version marker. Takes effect immediately.",
	RunE:  runCacheClear,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Schedule a clear for the next start",
	Long:  "Writes the invalidation marker without removing data. The next start (or panel page load) runs the version guard, which performs the clear.",
	RunE:  runCacheInvalidate,
}

var cacheGuardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Run the version guard and report the transition",
	RunE:  runCacheGuard,
}

func init() {
	cacheStatusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text, json or yaml")
	cacheClearCmd.Flags().BoolVar(&clearForce, "force", false, "Skip confirmation prompt")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheGuardCmd)
	cacheCmd.AddCommand(cacheWatchCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := renderSnapshot(a.Storage.Snapshot(), statusOutput, cfg.Backend, a.Paths.StoreFile(cfg.Backend))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// renderSnapshot formats snap as text, json or yaml.
func renderSnapshot(snap storage.Snapshot, format, backend, file string) (string, error) {
	switch format {
	case "text", "":
		return formatSnapshot(snap, backend, file), nil
	case "json":
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "yaml":
		b, err := yaml.Marshal(snap)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if !clearForce {
		fmt.Printf("This will clear all storyboard storage except %s. Continue? [y/N] ", strings.Join(storage.AllowList(), ", "))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	before := a.Storage.Snapshot()
	a.Storage.ClearAppStorage()
	after := a.Storage.Snapshot()

	if after.Version != a.Storage.Version() {
		return fmt.Errorf("clear did not complete (version %s); rerun with -v for details", after.Version)
	}
	fmt.Printf("⚡ storage cleared: %d → %d keys\n", before.KeyCount, after.KeyCount)
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.Storage.InvalidateStorageCache()
	marker := a.Storage.PendingMarker()
	if v, ok := a.Storage.GetItem(storage.VersionKey); !ok || v != marker {
		return fmt.Errorf("could not write invalidation marker; rerun with -v for details")
	}
	fmt.Printf("⚡ invalidation scheduled (marker %s), storage clears on next start\n", marker)
	return nil
}

func runCacheGuard(cmd *cobra.Command, args []string) error {
	// Open without the automatic guard so this run is the one reported.
	a, err := openAppWith(appOptions(true))
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Storage.Guard()
	fmt.Println(formatGuard(&res, a.Storage.Version()))
	if res.Aborted {
		return fmt.Errorf("version guard aborted")
	}
	return nil
}
